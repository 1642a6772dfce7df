package output

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/law-makers/harvest/pkg/models"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS crawls (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL,
	finished_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS records (
	crawl_id INTEGER NOT NULL REFERENCES crawls(id),
	url TEXT NOT NULL,
	title TEXT NOT NULL,
	date TEXT,
	author TEXT,
	category TEXT,
	tags TEXT,
	description TEXT,
	content TEXT,
	scraped_at TEXT NOT NULL,
	PRIMARY KEY (crawl_id, url)
);
`

// SaveSQLite appends the run to a SQLite database: one crawls row plus its
// records. Repeated runs into the same file accumulate.
func SaveSQLite(records []*models.CrawlRecord, sourceURL, path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec("INSERT INTO crawls (source, finished_at) VALUES (?, ?)",
		sourceURL, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to record crawl: %w", err)
	}
	crawlID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO records
		(crawl_id, url, title, date, author, category, tags, description, content, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(crawlID, r.URL, r.Title, r.Date, r.Author, r.Category,
			strings.Join(r.Tags, ", "), r.Description, r.Content,
			r.ScrapedAt.UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("failed to insert %s: %w", r.URL, err)
		}
	}
	return tx.Commit()
}
