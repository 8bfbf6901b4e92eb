// Package refdata holds the static game reference catalog: item TT values
// and blueprint material lists. The catalog is migrated in from YAML seed
// files and served to the tracker through the track.Resolver interface.
package refdata

import (
	"fmt"
	"io"

	"github.com/glebarez/sqlite"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"pedtrack/internal/ped"
	"pedtrack/internal/track"
)

// Item is one catalog row. TTValue is stored as a canonical decimal
// string; sqlite has no exact decimal column type.
type Item struct {
	ID      uint   `gorm:"primaryKey"`
	Name    string `gorm:"uniqueIndex;size:128"`
	TTValue string `gorm:"size:32"`
}

// Blueprint is one crafting recipe with its material list.
type Blueprint struct {
	ID         uint                `gorm:"primaryKey"`
	Name       string              `gorm:"uniqueIndex;size:128"`
	ResultItem string              `gorm:"size:128"`
	ResultTT   string              `gorm:"size:32"`
	Materials  []BlueprintMaterial `gorm:"constraint:OnDelete:CASCADE"`
}

// BlueprintMaterial is one ingredient of a Blueprint.
type BlueprintMaterial struct {
	ID          uint   `gorm:"primaryKey"`
	BlueprintID uint   `gorm:"index"`
	Item        string `gorm:"size:128"`
	Quantity    int
}

// Catalog is the reference-data store. Lookups are synchronous and may
// miss; callers degrade to zero-value recording.
type Catalog struct {
	db *gorm.DB
}

// Open opens (and migrates) the catalog database at path.
func Open(path string) (*Catalog, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening catalog db: %w", err)
	}
	if err := db.AutoMigrate(&Item{}, &Blueprint{}, &BlueprintMaterial{}); err != nil {
		return nil, fmt.Errorf("migrating catalog db: %w", err)
	}
	return &Catalog{db: db}, nil
}

// seedFile is the YAML shape of a reference-data seed.
type seedFile struct {
	Items []struct {
		Name string `yaml:"name"`
		TT   string `yaml:"tt"`
	} `yaml:"items"`
	Blueprints []struct {
		Name      string `yaml:"name"`
		Result    string `yaml:"result"`
		ResultTT  string `yaml:"result_tt"`
		Materials []struct {
			Item     string `yaml:"item"`
			Quantity int    `yaml:"quantity"`
		} `yaml:"materials"`
	} `yaml:"blueprints"`
}

// ImportStats summarises one import run.
type ImportStats struct {
	Items      int
	Blueprints int
	Skipped    int // rows with malformed values
}

// ImportYAML migrates a seed file into the catalog, upserting by name.
// Rows with unparseable TT values are skipped and counted, not fatal.
func (c *Catalog) ImportYAML(r io.Reader) (ImportStats, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return ImportStats{}, fmt.Errorf("reading seed file: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return ImportStats{}, fmt.Errorf("parsing seed file: %w", err)
	}

	var stats ImportStats
	err = c.db.Transaction(func(tx *gorm.DB) error {
		for _, it := range seed.Items {
			if _, err := ped.FromString(it.TT); err != nil {
				stats.Skipped++
				continue
			}
			row := Item{Name: it.Name, TTValue: it.TT}
			res := tx.Where(Item{Name: it.Name}).Assign(Item{TTValue: it.TT}).FirstOrCreate(&row)
			if res.Error != nil {
				return res.Error
			}
			stats.Items++
		}
		for _, bp := range seed.Blueprints {
			if _, err := ped.FromString(bp.ResultTT); err != nil {
				stats.Skipped++
				continue
			}
			row := Blueprint{Name: bp.Name}
			res := tx.Where(Blueprint{Name: bp.Name}).
				Assign(Blueprint{ResultItem: bp.Result, ResultTT: bp.ResultTT}).
				FirstOrCreate(&row)
			if res.Error != nil {
				return res.Error
			}
			// Replace the material list wholesale; partial merges of
			// ingredient rows are not worth the bookkeeping.
			if err := tx.Where("blueprint_id = ?", row.ID).Delete(&BlueprintMaterial{}).Error; err != nil {
				return err
			}
			for _, mat := range bp.Materials {
				m := BlueprintMaterial{BlueprintID: row.ID, Item: mat.Item, Quantity: mat.Quantity}
				if err := tx.Create(&m).Error; err != nil {
					return err
				}
			}
			stats.Blueprints++
		}
		return nil
	})
	if err != nil {
		return ImportStats{}, fmt.Errorf("importing seed data: %w", err)
	}
	return stats, nil
}

// LookupItem returns the TT value for an item name, or false if unknown.
func (c *Catalog) LookupItem(name string) (ped.Amount, bool) {
	var item Item
	if err := c.db.Where("name = ?", name).First(&item).Error; err != nil {
		return ped.Zero(), false
	}
	tt, err := ped.FromString(item.TTValue)
	if err != nil {
		return ped.Zero(), false
	}
	return tt, true
}

// LookupBlueprint returns the recipe for a blueprint name, or false if
// unknown.
func (c *Catalog) LookupBlueprint(name string) (*track.Blueprint, bool) {
	var bp Blueprint
	if err := c.db.Preload("Materials").Where("name = ?", name).First(&bp).Error; err != nil {
		return nil, false
	}
	tt, err := ped.FromString(bp.ResultTT)
	if err != nil {
		return nil, false
	}
	out := &track.Blueprint{
		Name:       bp.Name,
		ResultItem: bp.ResultItem,
		ResultTT:   tt,
	}
	for _, m := range bp.Materials {
		out.Materials = append(out.Materials, track.Material{Item: m.Item, Quantity: m.Quantity})
	}
	return out, true
}

var _ track.Resolver = (*Catalog)(nil)
