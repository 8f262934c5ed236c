// Package search keeps an in-memory full text index over the catalog.
package search

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/gouthamve/bookfetch/pkg/models"
)

type document struct {
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Publisher   string   `json:"publisher"`
	Categories  []string `json:"categories"`
	Description string   `json:"description"`
}

type Index struct {
	rebuildMu sync.Mutex

	mu    sync.RWMutex
	index bleve.Index
	books map[string]models.Book
	// journal records Add and Remove calls while a rebuild loads its
	// snapshot; nil when no rebuild is running.
	journal []change
}

// change is an Add, or a Remove when book is nil.
type change struct {
	isbn string
	book *models.Book
}

func NewIndex() (*Index, error) {
	index, err := newMemIndex()
	if err != nil {
		return nil, err
	}

	return &Index{index: index, books: map[string]models.Book{}}, nil
}

func newMemIndex() (bleve.Index, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create search index: %w", err)
	}
	return index, nil
}

// Replace rebuilds the index from books.
func (i *Index) Replace(books []models.Book) error {
	return i.Rebuild(func() ([]models.Book, error) { return books, nil })
}

// Rebuild replaces the index with one built from the books load returns.
// Changes made through Add and Remove while load runs are applied on top of
// the snapshot, so they survive the swap.
func (i *Index) Rebuild(load func() ([]models.Book, error)) error {
	i.rebuildMu.Lock()
	defer i.rebuildMu.Unlock()

	i.mu.Lock()
	i.journal = []change{}
	i.mu.Unlock()

	books, err := load()
	if err != nil {
		i.stopJournal()
		return err
	}

	index, byISBN, err := build(books)
	if err != nil {
		i.stopJournal()
		return err
	}

	i.mu.Lock()
	for _, c := range i.journal {
		if c.book == nil {
			delete(byISBN, c.isbn)
			err = index.Delete(c.isbn)
		} else {
			byISBN[c.isbn] = *c.book
			err = index.Index(c.isbn, toDocument(*c.book))
		}
		if err != nil {
			i.journal = nil
			i.mu.Unlock()
			return errors.Join(fmt.Errorf("replay %s: %w", c.isbn, err), index.Close())
		}
	}
	old := i.index
	i.index = index
	i.books = byISBN
	i.journal = nil
	i.mu.Unlock()

	return old.Close()
}

func (i *Index) stopJournal() {
	i.mu.Lock()
	i.journal = nil
	i.mu.Unlock()
}

func build(books []models.Book) (bleve.Index, map[string]models.Book, error) {
	index, err := newMemIndex()
	if err != nil {
		return nil, nil, err
	}

	batch := index.NewBatch()
	byISBN := make(map[string]models.Book, len(books))
	for _, book := range books {
		if err := batch.Index(book.ISBN, toDocument(book)); err != nil {
			return nil, nil, errors.Join(fmt.Errorf("index %s: %w", book.ISBN, err), index.Close())
		}
		byISBN[book.ISBN] = book
	}
	if err := index.Batch(batch); err != nil {
		return nil, nil, errors.Join(fmt.Errorf("index batch: %w", err), index.Close())
	}
	return index, byISBN, nil
}

func (i *Index) Add(book models.Book) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := i.index.Index(book.ISBN, toDocument(book)); err != nil {
		return fmt.Errorf("index %s: %w", book.ISBN, err)
	}
	i.books[book.ISBN] = book
	if i.journal != nil {
		i.journal = append(i.journal, change{isbn: book.ISBN, book: &book})
	}
	return nil
}

func (i *Index) Remove(isbn string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	delete(i.books, isbn)
	if i.journal != nil {
		i.journal = append(i.journal, change{isbn: isbn})
	}
	return i.index.Delete(isbn)
}

// Search returns up to limit books matching query, best match first.
// Matching tolerates one typo per term.
func (i *Index) Search(query string, limit int) ([]models.Book, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Book{}, nil
	}

	q := bleve.NewMatchQuery(query)
	q.SetFuzziness(1)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)

	i.mu.RLock()
	defer i.mu.RUnlock()

	res, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	books := make([]models.Book, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if book, ok := i.books[hit.ID]; ok {
			books = append(books, book)
		}
	}
	return books, nil
}

func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.books)
}

func toDocument(book models.Book) document {
	return document{
		Title:       book.Title,
		Authors:     book.Authors,
		Publisher:   book.Publisher,
		Categories:  book.Categories,
		Description: book.Description,
	}
}
