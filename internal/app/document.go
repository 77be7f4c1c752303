package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dshills/tagsource/internal/host"
)

// Document is an open file: its buffer and the view showing it.
type Document struct {
	// Path is the absolute file path (empty for in-memory documents).
	Path string

	// Name is the display name.
	Name string

	Buffer *host.Buffer
	View   *host.View
}

// IsDirectory reports whether the document is a directory listing.
func (d *Document) IsDirectory() bool {
	return d.Buffer.ContentType() == host.ContentTypeDirectory
}

// close closes the view, then the buffer.
func (d *Document) close() {
	d.View.Close()
	d.Buffer.Close()
}

// DocumentManager tracks open documents in opening order.
type DocumentManager struct {
	mu        sync.RWMutex
	documents map[string]*Document
	order     []string
	counter   int
}

// NewDocumentManager creates an empty document manager.
func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		documents: make(map[string]*Document),
	}
}

// Open opens a file or directory. Directories become sorted listings with
// subdirectories suffixed by a slash. An already open path returns the
// existing document.
func (dm *DocumentManager) Open(path string, roles ...host.Role) (*Document, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	dm.mu.Lock()
	defer dm.mu.Unlock()

	if doc, exists := dm.documents[absPath]; exists {
		return doc, nil
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, err
	}

	var buf *host.Buffer
	if info.IsDir() {
		listing, err := listDirectory(absPath)
		if err != nil {
			return nil, err
		}
		buf = host.NewBuffer(listing,
			host.WithName(absPath),
			host.WithContentType(host.ContentTypeDirectory),
			host.WithReadOnly(true),
		)
	} else {
		content, err := os.ReadFile(absPath)
		if err != nil {
			return nil, err
		}
		buf = host.NewBuffer(string(content), host.WithName(absPath))
	}

	doc := &Document{
		Path:   absPath,
		Name:   filepath.Base(absPath),
		Buffer: buf,
		View:   host.NewView(buf, roles...),
	}
	dm.documents[absPath] = doc
	dm.order = append(dm.order, absPath)
	return doc, nil
}

// Create adds an in-memory text document named name.
func (dm *DocumentManager) Create(name, content string, roles ...host.Role) *Document {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	dm.counter++
	key := fmt.Sprintf("memory:%d", dm.counter)
	buf := host.NewBuffer(content, host.WithName(name))
	doc := &Document{
		Name:   name,
		Buffer: buf,
		View:   host.NewView(buf, roles...),
	}
	dm.documents[key] = doc
	dm.order = append(dm.order, key)
	return doc
}

// Close closes doc and forgets it.
func (dm *DocumentManager) Close(doc *Document) error {
	if doc == nil {
		return ErrNilDocument
	}

	dm.mu.Lock()
	key, found := "", false
	for k, d := range dm.documents {
		if d == doc {
			key, found = k, true
			break
		}
	}
	if found {
		delete(dm.documents, key)
		for i, k := range dm.order {
			if k == key {
				dm.order = append(dm.order[:i], dm.order[i+1:]...)
				break
			}
		}
	}
	dm.mu.Unlock()

	if !found {
		return ErrDocumentNotFound
	}
	doc.close()
	return nil
}

// CloseAll closes every document, most recent first.
func (dm *DocumentManager) CloseAll() {
	dm.mu.Lock()
	docs := make([]*Document, 0, len(dm.order))
	for i := len(dm.order) - 1; i >= 0; i-- {
		docs = append(docs, dm.documents[dm.order[i]])
	}
	dm.documents = make(map[string]*Document)
	dm.order = nil
	dm.mu.Unlock()

	for _, doc := range docs {
		doc.close()
	}
}

// Get returns the document opened from path.
func (dm *DocumentManager) Get(path string) (*Document, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, false
	}

	dm.mu.RLock()
	defer dm.mu.RUnlock()
	doc, ok := dm.documents[absPath]
	return doc, ok
}

// All returns the open documents in opening order.
func (dm *DocumentManager) All() []*Document {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	docs := make([]*Document, 0, len(dm.order))
	for _, key := range dm.order {
		docs = append(docs, dm.documents[key])
	}
	return docs
}

// Count returns the number of open documents.
func (dm *DocumentManager) Count() int {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return len(dm.documents)
}

// listDirectory renders the entries of dir one per line, sorted by name.
func listDirectory(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(e.Name())
		if e.IsDir() {
			sb.WriteByte('/')
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
