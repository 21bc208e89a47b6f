package services

import "github.com/tnpportal/portal/models"

// CanMutate decides whether identity may update or delete post.
//
// Moderators and admins may mutate any post. Otherwise ownership is checked
// on the stable author ID when both sides carry one, and on the display name
// for posts written before author IDs were recorded. Name equality assumes
// display names are unique.
func CanMutate(identity Identity, post *models.Post) bool {
	if post == nil {
		return false
	}
	if identity.Role.Privileged() {
		return true
	}
	if post.AuthorID != "" && identity.ID != "" {
		return post.AuthorID == identity.ID
	}
	return identity.Name != "" && identity.Name == post.Author
}
