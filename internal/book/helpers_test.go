package book

// applyPatch merges the set fields of p onto b, mirroring the store merge.
func applyPatch(p Patch, b Book) Book {
	if p.Title.Set {
		b.Title = p.Title.Value
	}
	if p.Author.Set {
		b.Author = p.Author.Value
	}
	if p.ISBN.Set {
		b.ISBN = p.ISBN.Value
	}
	if p.Genre.Set {
		b.Genre = p.Genre.Value
	}
	if p.PublicationYear.Set {
		b.PublicationYear = p.PublicationYear.Value
	}
	return b
}
