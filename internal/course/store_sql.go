package course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

const materialCols = `id,type,course_id,section_id,sub_section_id,title,description,ord,is_locked,
pdf_url,blob_key,video_url,video_duration,video_size,video_status,video_type,
time_limit,passing_score,max_attempts,total_points,created_at`

// Reachable set: rows tagged with the course id, plus children linked only
// through their parent chain. Primary-key ordering keeps repeated reads
// byte-identical.
const listReachableSQL = `
SELECT ` + materialCols + ` FROM course_materials m
WHERE m.course_id = $1
   OR m.section_id IN (
        SELECT id FROM course_materials WHERE course_id = $1 AND type = 'section')
   OR m.sub_section_id IN (
        SELECT id FROM course_materials
         WHERE type = 'subsection'
           AND (course_id = $1 OR section_id IN (
                SELECT id FROM course_materials WHERE course_id = $1 AND type = 'section')))
ORDER BY m.id`

func (s *SQLStore) ListCourseMaterials(ctx context.Context, courseID string) ([]Material, error) {
	rows, err := s.db.QueryContext(ctx, listReachableSQL, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Material{}
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetMaterial(ctx context.Context, id string) (Material, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+materialCols+` FROM course_materials m WHERE id = $1`, id)
	m, err := scanMaterial(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Material{}, fmt.Errorf("%w: material %s", ErrNotFound, id)
	}
	return m, err
}

func (s *SQLStore) PutMaterial(ctx context.Context, m Material) (Material, error) {
	if !m.Type.Valid() {
		return Material{}, fmt.Errorf("%w: type", ErrMissingParameter)
	}
	if err := s.checkParent(ctx, m); err != nil {
		return Material{}, err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt == 0 {
		m.CreatedAt = time.Now().Unix()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO course_materials (`+strings.ReplaceAll(materialCols, "\n", "")+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		ON CONFLICT (id) DO UPDATE SET
		  type=EXCLUDED.type, course_id=EXCLUDED.course_id, section_id=EXCLUDED.section_id,
		  sub_section_id=EXCLUDED.sub_section_id, title=EXCLUDED.title,
		  description=EXCLUDED.description, ord=EXCLUDED.ord, is_locked=EXCLUDED.is_locked,
		  pdf_url=EXCLUDED.pdf_url, blob_key=EXCLUDED.blob_key, video_url=EXCLUDED.video_url,
		  video_duration=EXCLUDED.video_duration, video_size=EXCLUDED.video_size,
		  video_status=EXCLUDED.video_status, video_type=EXCLUDED.video_type,
		  time_limit=EXCLUDED.time_limit, passing_score=EXCLUDED.passing_score,
		  max_attempts=EXCLUDED.max_attempts, total_points=EXCLUDED.total_points`,
		m.ID, m.Type, m.CourseID, m.SectionID, m.SubSectionID, m.Title, m.Description,
		m.Order, m.IsLocked, m.PDFURL, m.BlobKey, m.VideoURL, m.VideoDuration, m.VideoSize,
		m.VideoStatus, m.VideoType, m.TimeLimit, m.PassingScore, m.MaxAttempts,
		m.TotalPoints, m.CreatedAt)
	if err != nil {
		return Material{}, err
	}
	return m, nil
}

// checkParent enforces write-time referential integrity: children may only be
// written under an existing parent of the right type.
func (s *SQLStore) checkParent(ctx context.Context, m Material) error {
	var parentID string
	var parentType Type
	switch m.Type {
	case TypeSection:
		if strings.TrimSpace(m.CourseID) == "" {
			return fmt.Errorf("%w: courseId", ErrMissingParameter)
		}
		return nil
	case TypeSubsection, TypeQuiz:
		parentID, parentType = m.SectionID, TypeSection
	case TypePDF, TypeVideo:
		parentID, parentType = m.SubSectionID, TypeSubsection
	}
	if strings.TrimSpace(parentID) == "" {
		return fmt.Errorf("%w: parent id for %s", ErrMissingParameter, m.Type)
	}
	var ok bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM course_materials WHERE id = $1 AND type = $2)`,
		parentID, parentType).Scan(&ok)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s %s", ErrParentMissing, parentType, parentID)
	}
	return nil
}

// DeleteMaterial removes a record and everything beneath it in one
// transaction, so a crash cannot strand half a subtree. Quiz questions go
// with their quiz. Blob keys of removed pdf/video rows are returned for
// best-effort cleanup by the caller.
func (s *SQLStore) DeleteMaterial(ctx context.Context, id string) ([]string, error) {
	m, err := s.GetMaterial(ctx, id)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var blobKeys []string
	collect := func(key string) {
		if key != "" {
			blobKeys = append(blobKeys, key)
		}
	}
	collect(m.BlobKey)

	switch m.Type {
	case TypeSection:
		// quizzes under the section, then materials under its subsections,
		// then the subsections, then the section itself
		if err := deleteQuizzesBySection(ctx, tx, id); err != nil {
			return nil, err
		}
		keys, err := deleteSubsectionChildren(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		blobKeys = append(blobKeys, keys...)
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM course_materials WHERE section_id = $1 AND type = 'subsection'`, id); err != nil {
			return nil, err
		}
	case TypeSubsection:
		rows, err := tx.QueryContext(ctx,
			`SELECT blob_key FROM course_materials WHERE sub_section_id = $1`, id)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var k string
			if err := rows.Scan(&k); err != nil {
				rows.Close()
				return nil, err
			}
			collect(k)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM course_materials WHERE sub_section_id = $1`, id); err != nil {
			return nil, err
		}
	case TypeQuiz:
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM quiz_questions WHERE quiz_id = $1`, id); err != nil {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM course_materials WHERE id = $1`, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return blobKeys, nil
}

func deleteQuizzesBySection(ctx context.Context, tx *sql.Tx, sectionID string) error {
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM quiz_questions WHERE quiz_id IN (
			SELECT id FROM course_materials WHERE section_id = $1 AND type = 'quiz')`,
		sectionID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx,
		`DELETE FROM course_materials WHERE section_id = $1 AND type = 'quiz'`, sectionID)
	return err
}

func deleteSubsectionChildren(ctx context.Context, tx *sql.Tx, sectionID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT blob_key FROM course_materials
		 WHERE sub_section_id IN (
			SELECT id FROM course_materials WHERE section_id = $1 AND type = 'subsection')`,
		sectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		if k != "" {
			keys = append(keys, k)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		DELETE FROM course_materials
		 WHERE sub_section_id IN (
			SELECT id FROM course_materials WHERE section_id = $1 AND type = 'subsection')`,
		sectionID)
	return keys, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMaterial(row rowScanner) (Material, error) {
	var m Material
	err := row.Scan(&m.ID, &m.Type, &m.CourseID, &m.SectionID, &m.SubSectionID,
		&m.Title, &m.Description, &m.Order, &m.IsLocked,
		&m.PDFURL, &m.BlobKey, &m.VideoURL, &m.VideoDuration, &m.VideoSize,
		&m.VideoStatus, &m.VideoType,
		&m.TimeLimit, &m.PassingScore, &m.MaxAttempts, &m.TotalPoints, &m.CreatedAt)
	return m, err
}
