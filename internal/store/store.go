package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"shipquote/internal/catalog"
	"shipquote/internal/tariff"
)

// Document names, shared by the file and Postgres loaders.
const (
	DocArticles = "articles"
	DocPallet   = "pallet_rates"
	DocGroupage = "groupage_rates"
	DocGeo      = "geo"
)

// ErrDocumentNotFound is returned when a required document is missing.
var ErrDocumentNotFound = errors.New("document not found")

// Dataset is everything the engine reads. It is loaded once and never
// mutated afterwards.
type Dataset struct {
	Articles []catalog.Article
	Pallet   *tariff.PalletRateTable
	Groupage *tariff.GroupageRateTable
	Geo      tariff.GeoMap
}

// Loader fetches a Dataset from its backing store.
type Loader interface {
	Load(ctx context.Context) (*Dataset, error)
}

// Validate checks the dataset can drive the engine.
func (d *Dataset) Validate() error {
	if err := d.Pallet.Validate(); err != nil {
		return fmt.Errorf("%s: %w", DocPallet, err)
	}
	if err := d.Groupage.Validate(); err != nil {
		return fmt.Errorf("%s: %w", DocGroupage, err)
	}
	for i, a := range d.Articles {
		if a.ID == "" {
			return fmt.Errorf("%s: article %d has no id", DocArticles, i)
		}
	}
	return nil
}

// decode builds a Dataset from raw JSON documents. The geo document is optional.
func decode(docs map[string][]byte) (*Dataset, error) {
	var d Dataset
	for _, name := range []string{DocArticles, DocPallet, DocGroupage} {
		if _, ok := docs[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, name)
		}
	}
	if err := json.Unmarshal(docs[DocArticles], &d.Articles); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", DocArticles, err)
	}
	d.Pallet = &tariff.PalletRateTable{}
	if err := json.Unmarshal(docs[DocPallet], d.Pallet); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", DocPallet, err)
	}
	d.Groupage = &tariff.GroupageRateTable{}
	if err := json.Unmarshal(docs[DocGroupage], d.Groupage); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", DocGroupage, err)
	}
	if raw, ok := docs[DocGeo]; ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &d.Geo); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", DocGeo, err)
		}
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}
	return &d, nil
}
