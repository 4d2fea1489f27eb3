package book

import (
	"sort"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var docJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// documentID is the store-native identifier of a book document. It never
// leaves the storage accessor; callers only see its string form.
type documentID uuid.UUID

func parseDocumentID(id string) (documentID, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return documentID{}, ErrInvalidID
	}
	return documentID(u), nil
}

func (id documentID) String() string {
	return uuid.UUID(id).String()
}

// document is the jsonb body stored per book. Keys match the public
// representation so that the ISBN unique index reads doc->>'ISBN'.
type document struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	ISBN            string `json:"ISBN"`
	Genre           string `json:"genre,omitempty"`
	PublicationYear int    `json:"publication_year"`
}

func encodeDocument(b Book) ([]byte, error) {
	return docJSON.Marshal(document{
		Title:           b.Title,
		Author:          b.Author,
		ISBN:            b.ISBN,
		Genre:           b.Genre,
		PublicationYear: b.PublicationYear,
	})
}

func decodeDocument(id string, raw []byte) (Book, error) {
	var d document
	if err := docJSON.Unmarshal(raw, &d); err != nil {
		return Book{}, err
	}
	return Book{
		ID:              id,
		Title:           d.Title,
		Author:          d.Author,
		ISBN:            d.ISBN,
		Genre:           d.Genre,
		PublicationYear: d.PublicationYear,
	}, nil
}

// encodePatch renders the set fields of p as a jsonb merge object.
func encodePatch(p Patch) ([]byte, error) {
	fields := make(map[string]any, 5)
	if p.Title.Set {
		fields["title"] = p.Title.Value
	}
	if p.Author.Set {
		fields["author"] = p.Author.Value
	}
	if p.ISBN.Set {
		fields["ISBN"] = p.ISBN.Value
	}
	if p.Genre.Set {
		fields["genre"] = p.Genre.Value
	}
	if p.PublicationYear.Set {
		fields["publication_year"] = p.PublicationYear.Value
	}
	return docJSON.Marshal(fields)
}

// GenreCounts is ordered by descending count and marshals to a JSON object
// that keeps that order.
type GenreCounts []GenreCount

func (gc GenreCounts) MarshalJSON() ([]byte, error) {
	stream := docJSON.BorrowStream(nil)
	defer docJSON.ReturnStream(stream)

	stream.WriteObjectStart()
	for i, c := range gc {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(c.Genre)
		stream.WriteInt64(c.Count)
	}
	stream.WriteObjectEnd()
	if stream.Error != nil {
		return nil, stream.Error
	}
	out := make([]byte, len(stream.Buffer()))
	copy(out, stream.Buffer())
	return out, nil
}

// collapseGenreCounts folds missing or blank genres into UnknownGenre and
// sorts by count desc, then genre name.
func collapseGenreCounts(rows []GenreCount) GenreCounts {
	merged := make(map[string]int64, len(rows))
	for _, r := range rows {
		g := r.Genre
		if g == "" {
			g = UnknownGenre
		}
		merged[g] += r.Count
	}
	out := make(GenreCounts, 0, len(merged))
	for g, n := range merged {
		out = append(out, GenreCount{Genre: g, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Genre < out[j].Genre
	})
	return out
}
