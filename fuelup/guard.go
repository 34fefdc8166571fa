/*
guard.go - Ownership-based access guard

PURPOSE:
  One stateless rule, enforced uniformly for every user-scoped operation
  regardless of which transport invokes the core: a request may touch a
  user's data only if the acting identity IS that user or carries the
  admin role. The guard performs no I/O.
*/
package fuelup

// Authorize allows access when the acting identity targets its own data or
// carries the admin role. Otherwise it returns a ForbiddenError.
func Authorize(actor Identity, targetUserID string) error {
	if actor.UserID == targetUserID {
		return nil
	}
	if actor.HasRole(RoleAdmin) {
		return nil
	}
	return &ForbiddenError{ActorID: actor.UserID, TargetID: targetUserID}
}
