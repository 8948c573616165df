// Package sqlite provides a SQLite-backed character store. Owner uniqueness
// is enforced by the characters primary key; skills live in a side table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/mcoot/sortinghat/internal/model"
	"github.com/mcoot/sortinghat/internal/storage"
)

// Storage persists characters in SQLite
type Storage struct {
	db *sql.DB
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// errVersionConflict means the row changed between read and write
var errVersionConflict = errors.New("sqlite: character version changed during update")

// Open opens the database at path and applies embedded migrations
func Open(ctx context.Context, path string) (*Storage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single writer connection serialises transactions inside the process
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database handle
func (s *Storage) Close() error {
	return s.db.Close()
}

const characterColumns = `owner_key, display_name, house, personality,
	base_strength, base_constitution, base_size, base_intelligence,
	base_willpower, base_dexterity, base_appearance, base_education,
	strength, constitution, size, intelligence,
	willpower, dexterity, appearance, education,
	hit_points, magic_points, sanity, movement, damage_bonus, build, status, skill_points,
	luck, balance, version, created_at, updated_at`

func (s *Storage) CreateCharacter(ctx context.Context, c *model.Character) error {
	stored := c.Clone()
	stored.Version = 1

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO characters (`+characterColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			characterArgs(stored)...,
		); err != nil {
			return err
		}
		return insertSkills(ctx, tx, stored)
	})
	if isUniqueViolation(err) {
		return model.ErrCharacterExists
	}
	if err != nil {
		return err
	}
	c.Version = stored.Version
	return nil
}

func (s *Storage) GetCharacter(ctx context.Context, owner model.OwnerKey) (*model.Character, error) {
	var c *model.Character
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		c, err = loadCharacter(ctx, tx, owner)
		return err
	})
	return c, err
}

func (s *Storage) UpdateCharacter(ctx context.Context, owner model.OwnerKey, fn storage.UpdateFunc) (*model.Character, error) {
	var result *model.Character
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		current, err := loadCharacter(ctx, tx, owner)
		if err != nil {
			return err
		}
		version := current.Version
		if err := fn(current); err != nil {
			return err
		}
		current.OwnerKey = owner
		current.Version = version + 1

		res, err := tx.ExecContext(ctx,
			`UPDATE characters SET
			   display_name = ?, house = ?, personality = ?,
			   base_strength = ?, base_constitution = ?, base_size = ?, base_intelligence = ?,
			   base_willpower = ?, base_dexterity = ?, base_appearance = ?, base_education = ?,
			   strength = ?, constitution = ?, size = ?, intelligence = ?,
			   willpower = ?, dexterity = ?, appearance = ?, education = ?,
			   hit_points = ?, magic_points = ?, sanity = ?, movement = ?,
			   damage_bonus = ?, build = ?, status = ?, skill_points = ?,
			   luck = ?, balance = ?, version = ?, updated_at = ?
			 WHERE owner_key = ? AND version = ?`,
			updateArgs(current, version)...,
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n != 1 {
			return errVersionConflict
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM character_skills WHERE owner_key = ?`, string(owner)); err != nil {
			return err
		}
		if err := insertSkills(ctx, tx, current); err != nil {
			return err
		}
		result = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Storage) DeleteCharacter(ctx context.Context, owner model.OwnerKey) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM character_skills WHERE owner_key = ?`, string(owner)); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM characters WHERE owner_key = ?`, string(owner))
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return model.ErrCharacterNotFound
		}
		return nil
	})
}

func (s *Storage) ListCharacters(ctx context.Context) ([]*model.Character, error) {
	var result []*model.Character
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT `+characterColumns+` FROM characters ORDER BY owner_key`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			c, err := scanCharacter(rows)
			if err != nil {
				return err
			}
			result = append(result, c)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		rows.Close()

		for _, c := range result {
			if c.Skills, err = loadSkills(ctx, tx, c.OwnerKey); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []*model.Character{}
	}
	return result, nil
}

// inTx runs fn inside a transaction, committing on success
func (s *Storage) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func loadCharacter(ctx context.Context, tx *sql.Tx, owner model.OwnerKey) (*model.Character, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+characterColumns+` FROM characters WHERE owner_key = ?`, string(owner))
	c, err := scanCharacter(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrCharacterNotFound
	}
	if err != nil {
		return nil, err
	}
	if c.Skills, err = loadSkills(ctx, tx, owner); err != nil {
		return nil, err
	}
	return c, nil
}

func scanCharacter(row rowScanner) (*model.Character, error) {
	var (
		c                    model.Character
		owner                string
		house, personality   sql.NullString
		status               string
		createdAt, updatedAt int64
	)
	b, a, d := &c.Base, &c.Attributes, &c.Derived
	err := row.Scan(
		&owner, &c.DisplayName, &house, &personality,
		&b.Strength, &b.Constitution, &b.Size, &b.Intelligence,
		&b.Willpower, &b.Dexterity, &b.Appearance, &b.Education,
		&a.Strength, &a.Constitution, &a.Size, &a.Intelligence,
		&a.Willpower, &a.Dexterity, &a.Appearance, &a.Education,
		&d.HitPoints, &d.MagicPoints, &d.Sanity, &d.Movement, &d.DamageBonus, &d.Build, &status, &d.SkillPoints,
		&c.Luck, &c.Balance, &c.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.OwnerKey = model.OwnerKey(owner)
	c.House = house.String
	c.Personalities = model.SplitPersonalities(personality.String)
	d.Status = model.Status(status)
	c.CreatedAt = fromMillis(createdAt)
	c.UpdatedAt = fromMillis(updatedAt)
	return &c, nil
}

func loadSkills(ctx context.Context, tx *sql.Tx, owner model.OwnerKey) ([]model.Skill, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT skill_name, base_value, bonus_value FROM character_skills WHERE owner_key = ? ORDER BY position`,
		string(owner),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	skills := []model.Skill{}
	for rows.Next() {
		var sk model.Skill
		if err := rows.Scan(&sk.Name, &sk.Base, &sk.Bonus); err != nil {
			return nil, err
		}
		skills = append(skills, sk)
	}
	return skills, rows.Err()
}

func insertSkills(ctx context.Context, tx *sql.Tx, c *model.Character) error {
	for i, sk := range c.Skills {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO character_skills (owner_key, position, skill_name, base_value, bonus_value) VALUES (?, ?, ?, ?, ?)`,
			string(c.OwnerKey), i, sk.Name, sk.Base, sk.Bonus,
		); err != nil {
			return fmt.Errorf("insert skill %q: %w", sk.Name, err)
		}
	}
	return nil
}

func characterArgs(c *model.Character) []any {
	return append([]any{string(c.OwnerKey)}, append(mutableArgs(c), toMillis(c.CreatedAt), toMillis(c.UpdatedAt))...)
}

func updateArgs(c *model.Character, prevVersion int64) []any {
	return append(mutableArgs(c), toMillis(c.UpdatedAt), string(c.OwnerKey), prevVersion)
}

// mutableArgs lists display_name through version in column order
func mutableArgs(c *model.Character) []any {
	b, a, d := c.Base, c.Attributes, c.Derived
	return []any{
		c.DisplayName, nullable(c.House), nullable(c.PersonalityLabel()),
		b.Strength, b.Constitution, b.Size, b.Intelligence,
		b.Willpower, b.Dexterity, b.Appearance, b.Education,
		a.Strength, a.Constitution, a.Size, a.Intelligence,
		a.Willpower, a.Dexterity, a.Appearance, a.Education,
		d.HitPoints, d.MagicPoints, d.Sanity, d.Movement, d.DamageBonus, d.Build, string(d.Status), d.SkillPoints,
		c.Luck, c.Balance, c.Version,
	}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}

// Ping checks the database connection
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
