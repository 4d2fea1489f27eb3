package book

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	booksTable         = "books"
	colSeq             = "seq"
	colDoc             = "doc"
	uniqueViolation    = "23505"
	fieldTitle         = `doc->>'title'`
	fieldAuthor        = `doc->>'author'`
	fieldGenre         = `doc->>'genre'`
	fieldYear          = `(doc->>'publication_year')::int`
	selectIDText       = "id::text"
	aliasGenre         = "genre"
	aliasCount         = "count"
	genreOrBlank       = `COALESCE(doc->>'genre', '')`
	likeEscaper        = `\`
	defaultDialectName = "postgres"
)

var dialect = goqu.Dialect(defaultDialectName)

// PostgresRepo stores books as jsonb documents in a single collection table.
type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// classify maps driver errors onto the package error taxonomy. The unique
// index on doc->>'ISBN' is the source of truth for duplicates.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateISBN
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (r *PostgresRepo) Insert(ctx context.Context, b Book) (string, error) {
	const sql = `INSERT INTO books (doc) VALUES ($1::jsonb) RETURNING id::text`

	payload, err := encodeDocument(b)
	if err != nil {
		return "", fmt.Errorf("insert book: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var id string
	if err := r.db.QueryRow(timeoutCtx, sql, string(payload)).Scan(&id); err != nil {
		return "", classify("insert book", err)
	}
	return id, nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Book, error) {
	const sql = `SELECT id::text, doc FROM books WHERE id = $1`

	docID, err := parseDocumentID(id)
	if err != nil {
		return Book{}, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var (
		gotID string
		raw   []byte
	)
	if err := r.db.QueryRow(timeoutCtx, sql, docID.String()).Scan(&gotID, &raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, classify("get book", err)
	}
	return decodeDocument(gotID, raw)
}

func (r *PostgresRepo) UpdateByID(ctx context.Context, id string, p Patch) (Book, error) {
	// doc @> patch holds when every patched key already has the new value.
	const sql = `
		UPDATE books SET doc = doc || $2::jsonb
		WHERE id = $1 AND NOT (doc @> $2::jsonb)
		RETURNING id::text, doc`

	docID, err := parseDocumentID(id)
	if err != nil {
		return Book{}, err
	}
	if p.IsEmpty() {
		return Book{}, ErrNoFields
	}
	payload, err := encodePatch(p)
	if err != nil {
		return Book{}, fmt.Errorf("update book: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var (
		gotID string
		raw   []byte
	)
	err = r.db.QueryRow(timeoutCtx, sql, docID.String(), string(payload)).Scan(&gotID, &raw)
	if err == nil {
		return decodeDocument(gotID, raw)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Book{}, classify("update book", err)
	}

	exists, err := r.exists(timeoutCtx, docID)
	if err != nil {
		return Book{}, err
	}
	if !exists {
		return Book{}, ErrNotFound
	}
	return Book{}, ErrNoChanges
}

func (r *PostgresRepo) exists(ctx context.Context, id documentID) (bool, error) {
	const sql = `SELECT EXISTS (SELECT 1 FROM books WHERE id = $1)`
	var ok bool
	if err := r.db.QueryRow(ctx, sql, id.String()).Scan(&ok); err != nil {
		return false, classify("check book", err)
	}
	return ok, nil
}

func (r *PostgresRepo) DeleteByID(ctx context.Context, id string) error {
	const sql = `DELETE FROM books WHERE id = $1`

	docID, err := parseDocumentID(id)
	if err != nil {
		return err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, sql, docID.String())
	if err != nil {
		return classify("delete book", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistsByISBN reports whether a book other than excludeID stores isbn.
// An empty excludeID excludes nothing.
func (r *PostgresRepo) ExistsByISBN(ctx context.Context, isbn, excludeID string) (bool, error) {
	const (
		sqlAny   = `SELECT EXISTS (SELECT 1 FROM books WHERE doc->>'ISBN' = $1)`
		sqlOther = `SELECT EXISTS (SELECT 1 FROM books WHERE doc->>'ISBN' = $1 AND id <> $2::uuid)`
	)

	sql, args := sqlAny, []any{isbn}
	if excludeID != "" {
		docID, err := parseDocumentID(excludeID)
		if err != nil {
			return false, err
		}
		sql, args = sqlOther, []any{isbn, docID.String()}
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var ok bool
	if err := r.db.QueryRow(timeoutCtx, sql, args...).Scan(&ok); err != nil {
		return false, classify("check isbn", err)
	}
	return ok, nil
}

func (r *PostgresRepo) List(ctx context.Context, page Page) ([]Book, error) {
	return r.queryBooks(ctx, "list books", selectBooks(page))
}

func (r *PostgresRepo) Search(ctx context.Context, query string, page Page) ([]Book, error) {
	return r.queryBooks(ctx, "search books", selectBooks(page, searchCondition(query)))
}

func (r *PostgresRepo) Filter(ctx context.Context, f Filter, page Page) ([]Book, error) {
	return r.queryBooks(ctx, "filter books", selectBooks(page, filterConditions(f)...))
}

func (r *PostgresRepo) CountAll(ctx context.Context) (int64, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var n int64
	if err := r.db.QueryRow(timeoutCtx, "SELECT COUNT(*) FROM books").Scan(&n); err != nil {
		return 0, classify("count books", err)
	}
	return n, nil
}

func (r *PostgresRepo) CountByGenre(ctx context.Context) (GenreCounts, error) {
	query, args, err := genreCountQuery().ToSQL()
	if err != nil {
		return nil, fmt.Errorf("count by genre: build query: %w", err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return nil, classify("count by genre", err)
	}
	defer rows.Close()

	var counts []GenreCount
	for rows.Next() {
		var c GenreCount
		if err := rows.Scan(&c.Genre, &c.Count); err != nil {
			return nil, fmt.Errorf("count by genre: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("count by genre", err)
	}
	return collapseGenreCounts(counts), nil
}

// Probe issues a lightweight read against the collection.
func (r *PostgresRepo) Probe(ctx context.Context) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	var raw []byte
	err := r.db.QueryRow(timeoutCtx, "SELECT doc FROM books LIMIT 1").Scan(&raw)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return classify("probe", err)
	}
	return nil
}

func (r *PostgresRepo) queryBooks(ctx context.Context, op string, ds *goqu.SelectDataset) ([]Book, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	rows, err := r.db.Query(timeoutCtx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	out := make([]Book, 0)
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		b, err := decodeDocument(id, raw)
		if err != nil {
			return nil, fmt.Errorf("%s: decode %s: %w", op, id, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}

// selectBooks returns books in insertion sequence, which is stable for
// skip/limit paging over an unchanged collection.
func selectBooks(page Page, where ...exp.Expression) *goqu.SelectDataset {
	return dialect.From(booksTable).Prepared(true).
		Select(goqu.L(selectIDText), goqu.C(colDoc)).
		Where(where...).
		Order(goqu.C(colSeq).Asc()).
		Offset(uint(page.Skip)).
		Limit(uint(page.Limit))
}

func searchCondition(query string) exp.Expression {
	pattern := containsPattern(query)
	return goqu.Or(
		goqu.L(fieldTitle).ILike(pattern),
		goqu.L(fieldAuthor).ILike(pattern),
	)
}

func filterConditions(f Filter) []exp.Expression {
	var conds []exp.Expression
	if f.Genre != "" {
		conds = append(conds, goqu.L(fieldGenre).ILike(containsPattern(f.Genre)))
	}
	if f.PublicationYear != nil {
		conds = append(conds, goqu.L(fieldYear).Eq(*f.PublicationYear))
	}
	return conds
}

func genreCountQuery() *goqu.SelectDataset {
	genre := goqu.L(genreOrBlank)
	return dialect.From(booksTable).Prepared(true).
		Select(genre.As(aliasGenre), goqu.COUNT(goqu.Star()).As(aliasCount)).
		GroupBy(genre).
		Order(goqu.I(aliasCount).Desc())
}

// containsPattern builds an ILIKE pattern matching s as a literal substring.
func containsPattern(s string) string {
	r := strings.NewReplacer(likeEscaper, likeEscaper+likeEscaper, "%", likeEscaper+"%", "_", likeEscaper+"_")
	return "%" + r.Replace(s) + "%"
}
