package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/putzplan/putz/internal/domain"
	"github.com/putzplan/putz/internal/logging"
	"github.com/sirupsen/logrus"
)

// StateDocument is the name of the application state document.
const StateDocument = "state"

// schemaVersion is stamped on every saved document.
const schemaVersion = 1

// Documents persists the whole application state as one JSON document.
// Every Save replaces the previous body in a single transaction.
type Documents struct {
	db   *sql.DB
	name string
	log  logrus.FieldLogger
}

// NewDocuments returns a persister for the state document.
func NewDocuments(db *sql.DB, log logrus.FieldLogger) *Documents {
	if log == nil {
		log = logging.Discard()
	}
	return &Documents{db: db, name: StateDocument, log: log}
}

// Load returns the stored document. A missing document yields an empty one;
// a corrupt body is logged and also treated as empty.
func (d *Documents) Load() (*domain.Document, error) {
	var body string
	err := d.db.QueryRow(`SELECT body FROM documents WHERE name = ?`, d.name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading document %q: %w", d.name, err)
	}

	doc := &domain.Document{}
	if err := json.Unmarshal([]byte(body), doc); err != nil {
		d.log.WithFields(logrus.Fields{
			"module":   "store",
			"document": d.name,
		}).WithError(err).Warn("corrupt state document, starting from empty state")
		return domain.NewDocument(), nil
	}
	doc.EnsureDefaults()
	return doc, nil
}

// Save replaces the stored document with doc.
func (d *Documents) Save(doc *domain.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding document %q: %w", d.name, err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning save: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(
		`INSERT INTO documents (name, body, revision, schema_version, updated_at)
		 VALUES (?, ?, 1, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(name) DO UPDATE SET
		   body = excluded.body,
		   revision = documents.revision + 1,
		   schema_version = excluded.schema_version,
		   updated_at = CURRENT_TIMESTAMP`,
		d.name, string(body), schemaVersion,
	)
	if err != nil {
		return fmt.Errorf("saving document %q: %w", d.name, err)
	}
	return tx.Commit()
}

// Revision returns how many times the document has been saved.
func (d *Documents) Revision() (int, error) {
	var rev int
	err := d.db.QueryRow(`SELECT revision FROM documents WHERE name = ?`, d.name).Scan(&rev)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return rev, err
}
