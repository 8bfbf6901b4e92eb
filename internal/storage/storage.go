// Package storage archives finalized sessions and runs. It receives
// closed records from the tracker and serves history queries; nothing is
// ever read back into an active session.
package storage

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"pedtrack/internal/track"
)

// SessionRecord is the durable form of a closed session. Monetary columns
// are canonical decimal strings.
type SessionRecord struct {
	ID              uint      `gorm:"primaryKey"`
	UUID            string    `gorm:"uniqueIndex;size:36"`
	Activity        string    `gorm:"index;size:16"`
	StartedAt       time.Time `gorm:"index"`
	EndedAt         time.Time
	CreaturesLooted int
	TotalCost       string `gorm:"size:32"`
	TotalReturn     string `gorm:"size:32"`
	TotalSkillGain  string `gorm:"size:32"`
	Globals         int
	HOFs            int
	Runs            []RunRecord   `gorm:"constraint:OnDelete:CASCADE"`
	Skills          []SkillRecord `gorm:"constraint:OnDelete:CASCADE"`
}

// RunRecord is the durable form of a closed run.
type RunRecord struct {
	ID                  uint   `gorm:"primaryKey"`
	SessionRecordID     uint   `gorm:"index"`
	UUID                string `gorm:"uniqueIndex;size:36"`
	StartedAt           time.Time
	EndedAt             time.Time
	Notes               string `gorm:"type:text"`
	Implicit            bool
	Spend               string `gorm:"size:32"`
	EnhancerCost        string `gorm:"size:32"`
	ExtraSpend          string `gorm:"size:32"`
	ReturnTotal         string `gorm:"size:32"`
	CreaturesLooted     int
	UnresolvedEnhancers int
	Items               []ItemRecord `gorm:"constraint:OnDelete:CASCADE"`
}

// ItemRecord is one loot-breakdown row of an archived run.
type ItemRecord struct {
	ID          uint   `gorm:"primaryKey"`
	RunRecordID uint   `gorm:"index"`
	Name        string `gorm:"size:128"`
	Count       int
	TTTotal     string `gorm:"size:32"`
	Markup      string `gorm:"size:32"`
	TotalValue  string `gorm:"size:32"`
}

// SkillRecord is one per-skill tally of an archived session.
type SkillRecord struct {
	ID              uint   `gorm:"primaryKey"`
	SessionRecordID uint   `gorm:"index"`
	Name            string `gorm:"size:64"`
	Total           string `gorm:"size:32"`
	Gains           int
	Procs           int
}

// Store is the durable session archive.
type Store struct {
	db *gorm.DB
}

// Open opens (and migrates) the archive database at path.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening archive db: %w", err)
	}
	if err := db.AutoMigrate(&SessionRecord{}, &RunRecord{}, &ItemRecord{}, &SkillRecord{}); err != nil {
		return nil, fmt.Errorf("migrating archive db: %w", err)
	}
	return &Store{db: db}, nil
}

// Archive persists a finalized session and all of its runs in one
// transaction. The session must be closed.
func (s *Store) Archive(sess *track.Session) error {
	if sess == nil || sess.EndTime == nil {
		return fmt.Errorf("refusing to archive an open session")
	}

	rec := SessionRecord{
		UUID:            sess.ID,
		Activity:        string(sess.Activity),
		StartedAt:       sess.StartTime,
		EndedAt:         *sess.EndTime,
		CreaturesLooted: sess.CreaturesLooted,
		TotalCost:       sess.TotalCost.String(),
		TotalReturn:     sess.TotalReturn.String(),
		TotalSkillGain:  sess.TotalSkillGain.String(),
		Globals:         sess.Globals,
		HOFs:            sess.HOFs,
	}
	for _, r := range sess.Runs {
		ended := sess.EndTime
		if r.EndTime != nil {
			ended = r.EndTime
		}
		rr := RunRecord{
			UUID:                r.ID,
			StartedAt:           r.StartTime,
			EndedAt:             *ended,
			Notes:               r.Notes,
			Implicit:            r.Implicit,
			Spend:               r.Spend.String(),
			EnhancerCost:        r.EnhancerCost.String(),
			ExtraSpend:          r.ExtraSpend.String(),
			ReturnTotal:         r.ReturnTotal.String(),
			CreaturesLooted:     r.CreaturesLooted,
			UnresolvedEnhancers: r.UnresolvedEnhancers,
		}
		for name, row := range r.Items {
			rr.Items = append(rr.Items, ItemRecord{
				Name:       name,
				Count:      row.Count,
				TTTotal:    row.TTTotal.String(),
				Markup:     row.Markup.String(),
				TotalValue: row.TotalValue.String(),
			})
		}
		rec.Runs = append(rec.Runs, rr)
	}
	for name, e := range sess.Skills {
		rec.Skills = append(rec.Skills, SkillRecord{
			Name:  name,
			Total: e.Total.String(),
			Gains: e.Gains,
			Procs: e.Procs,
		})
	}

	if err := s.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("archiving session %s: %w", sess.ID, err)
	}
	return nil
}

// Recent returns the newest archived sessions, runs preloaded, newest
// first.
func (s *Store) Recent(limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []SessionRecord
	err := s.db.Preload("Runs").Preload("Skills").
		Order("started_at desc").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("querying archived sessions: %w", err)
	}
	return out, nil
}

// Last returns the most recently started archived session, or nil when
// the archive is empty.
func (s *Store) Last() (*SessionRecord, error) {
	recs, err := s.Recent(1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}
