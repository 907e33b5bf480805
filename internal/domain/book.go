package domain

// Field limits for books.
const (
	MaxTitleLength  = 100
	MaxAuthorLength = 100
)

// Book is a catalog item that may be loaned.
// IsAvailable is false exactly while the book has an open loan.
type Book struct {
	Record
	Title       string `json:"title"`
	Author      string `json:"author"`
	IsAvailable bool   `json:"is_available"`
}

// NewBook returns an available book with the given identity and fields.
// Callers set timestamps with InitTimestamps.
func NewBook(id, title, author string) *Book {
	return &Book{
		Record:      Record{ID: id},
		Title:       title,
		Author:      author,
		IsAvailable: true,
	}
}

// BookUpdate holds the fields of a partial book update. Nil fields are left untouched.
type BookUpdate struct {
	Title       *string
	Author      *string
	IsAvailable *bool
}

// IsEmpty reports whether the update changes nothing.
func (u BookUpdate) IsEmpty() bool {
	return u.Title == nil && u.Author == nil && u.IsAvailable == nil
}

// ConflictsWith reports whether the update tries to set availability to a value that
// disagrees with the book's loan-driven state.
func (u BookUpdate) ConflictsWith(b *Book) bool {
	return u.IsAvailable != nil && *u.IsAvailable != b.IsAvailable
}

// Apply copies the supplied fields onto b. Availability is never copied: it only
// changes through borrow and return.
func (u BookUpdate) Apply(b *Book) {
	if u.Title != nil {
		b.Title = *u.Title
	}
	if u.Author != nil {
		b.Author = *u.Author
	}
}

// ChangesStoredFields reports whether Apply would modify a stored column.
func (u BookUpdate) ChangesStoredFields() bool {
	return u.Title != nil || u.Author != nil
}

// BookFilter selects which books ListBooks returns.
type BookFilter struct {
	AvailableOnly bool
}

// Matches reports whether b passes the filter.
func (f BookFilter) Matches(b *Book) bool {
	return !f.AvailableOnly || b.IsAvailable
}
