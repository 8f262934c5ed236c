package models

// GoogleBooksResponse is the payload of the Google Books volumes search.
type GoogleBooksResponse struct {
	Kind       string       `json:"kind"`
	TotalItems int          `json:"totalItems"`
	Items      []GoogleBook `json:"items"`
}

type GoogleBook struct {
	Kind       string `json:"kind"`
	ID         string `json:"id"`
	Etag       string `json:"etag"`
	SelfLink   string `json:"selfLink"`
	VolumeInfo struct {
		Title               string   `json:"title"`
		Subtitle            string   `json:"subtitle"`
		Authors             []string `json:"authors"`
		Publisher           string   `json:"publisher"`
		PublishedDate       string   `json:"publishedDate"`
		Description         string   `json:"description"`
		IndustryIdentifiers []struct {
			Type       string `json:"type"`
			Identifier string `json:"identifier"`
		} `json:"industryIdentifiers"`
		PageCount  int      `json:"pageCount"`
		PrintType  string   `json:"printType"`
		Categories []string `json:"categories"`
		ImageLinks struct {
			SmallThumbnail string `json:"smallThumbnail"`
			Thumbnail      string `json:"thumbnail"`
		} `json:"imageLinks"`
		Language    string `json:"language"`
		PreviewLink string `json:"previewLink"`
		InfoLink    string `json:"infoLink"`
	} `json:"volumeInfo"`
}

// OpenLibraryResponse is keyed by bibkey, e.g. "ISBN:9780131103627".
type OpenLibraryResponse map[string]OpenLibraryBook

type OpenLibraryBook struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Authors  []struct {
		URL  string `json:"url"`
		Name string `json:"name"`
	} `json:"authors"`
	NumberOfPages int `json:"number_of_pages"`
	Identifiers   struct {
		Isbn10      []string `json:"isbn_10"`
		Isbn13      []string `json:"isbn_13"`
		Openlibrary []string `json:"openlibrary"`
	} `json:"identifiers"`
	Publishers []struct {
		Name string `json:"name"`
	} `json:"publishers"`
	PublishDate string `json:"publish_date"`
	Subjects    []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"subjects"`
	Cover struct {
		Small  string `json:"small"`
		Medium string `json:"medium"`
		Large  string `json:"large"`
	} `json:"cover"`
}

// DebugResponse is served by /debug/lookup/:isbn.
type DebugResponse struct {
	Book                Book                 `json:"book"`
	GoogleBooksResponse *GoogleBooksResponse `json:"google_books_response"`
	OpenLibraryResponse *OpenLibraryResponse `json:"open_library_response"`
}
