package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/hospitalcms/backend/services/editor-service/internal/models"
)

// maxMessageLength matches the message column size, counted in characters
const maxMessageLength = 500

// saveHistoryRepository implements save history repository operations
type saveHistoryRepository struct {
	db *sql.DB
}

// NewSaveHistoryRepository creates a new save history repository
func NewSaveHistoryRepository(db *sql.DB) *saveHistoryRepository {
	return &saveHistoryRepository{
		db: db,
	}
}

// Create inserts a save attempt and sets its ID
func (r *saveHistoryRepository) Create(ctx context.Context, record *models.SaveRecord) error {
	changes := record.Changes
	if changes == nil {
		changes = []string{}
	}
	changesJSON, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("failed to marshal changes: %w", err)
	}

	message := truncateMessage(record.Message)

	query := `
		INSERT INTO section_saves (section_id, layout, operator_id, changes, success, message)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		record.SectionID,
		record.Layout,
		record.OperatorID,
		string(changesJSON),
		record.Success,
		message,
	)
	if err != nil {
		return fmt.Errorf("failed to create save record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	record.ID = int(id)

	return nil
}

// ListBySection retrieves the latest save attempts of a section, newest first
func (r *saveHistoryRepository) ListBySection(ctx context.Context, sectionID, limit int) ([]models.SaveRecord, error) {
	query := `
		SELECT id, section_id, layout, operator_id, changes, success, message, created_at
		FROM section_saves
		WHERE section_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, sectionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query save history: %w", err)
	}
	defer rows.Close()

	records := make([]models.SaveRecord, 0)
	for rows.Next() {
		var record models.SaveRecord
		var changesJSON string
		if err := rows.Scan(
			&record.ID,
			&record.SectionID,
			&record.Layout,
			&record.OperatorID,
			&changesJSON,
			&record.Success,
			&record.Message,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan save record: %w", err)
		}
		if err := json.Unmarshal([]byte(changesJSON), &record.Changes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal changes of save record %d: %w", record.ID, err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating save history: %w", err)
	}

	return records, nil
}

// DeleteOlderThan deletes all save records with created_at older than or equal to before
func (r *saveHistoryRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int, error) {
	query := `DELETE FROM section_saves WHERE created_at <= ?`

	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old save records: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}

func truncateMessage(message string) string {
	if utf8.RuneCountInString(message) <= maxMessageLength {
		return message
	}
	return string([]rune(message)[:maxMessageLength])
}
