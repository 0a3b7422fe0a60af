package redis

const (
	// KeyPrefixNote is the prefix for note documents
	KeyPrefixNote = "keepmark:note:"
	// KeyPrefixBookmark is the prefix for bookmark documents
	KeyPrefixBookmark = "keepmark:bookmark:"
	// KeyPrefixUser is the prefix for per-user indexes
	KeyPrefixUser = "keepmark:user:"
	// KeyUntitledBookmarks is the set of bookmark IDs still titled "Untitled"
	KeyUntitledBookmarks = "keepmark:bookmarks:untitled"
)

// NoteKey returns the Redis key for a note document
func NoteKey(id string) string {
	return KeyPrefixNote + id
}

// BookmarkKey returns the Redis key for a bookmark document
func BookmarkKey(id string) string {
	return KeyPrefixBookmark + id
}

// UserNotesKey returns the sorted set (score = creation time) of a user's notes
func UserNotesKey(user string) string {
	return KeyPrefixUser + user + ":notes"
}

// UserBookmarksKey returns the sorted set (score = creation time) of a user's bookmarks
func UserBookmarksKey(user string) string {
	return KeyPrefixUser + user + ":bookmarks"
}

// UntitledBookmarksKey returns the key of the metadata refresh backlog
func UntitledBookmarksKey() string {
	return KeyUntitledBookmarks
}
