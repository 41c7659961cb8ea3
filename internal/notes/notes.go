package notes

// Repository persists moderator notes per user. Notes are append-only:
// there is no edit or delete operation.
// List must return an empty slice, not an error, for unknown users.
type Repository interface {
	Append(userID int64, text string) error
	List(userID int64) ([]string, error)
}
