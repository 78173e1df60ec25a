package source

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	_ "modernc.org/sqlite"
)

// ReadGeoPackage reads all rows of layer from the GeoPackage at path.
// The layer's geometry column becomes Record.Geometry; every other column is
// an attribute.
func ReadGeoPackage(ctx context.Context, path, layer string) (*Layer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open geopackage %s", path)
	}
	defer db.Close() //nolint:errcheck

	var geomCol string
	err = db.QueryRowContext(ctx,
		`SELECT column_name FROM gpkg_geometry_columns WHERE table_name = ?`, layer,
	).Scan(&geomCol)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &SourceNotFoundError{Path: path, Layer: layer, Err: err}
	}
	if err != nil {
		return nil, eris.Wrapf(err, "source: lookup geometry column for %s", layer)
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(layer))
	if err != nil {
		return nil, eris.Wrapf(err, "source: query layer %s", layer)
	}
	defer rows.Close() //nolint:errcheck

	cols, err := rows.Columns()
	if err != nil {
		return nil, eris.Wrap(err, "source: read columns")
	}

	out := &Layer{Name: layer, Columns: make([]string, 0, len(cols))}
	for _, col := range cols {
		if col != geomCol {
			out.Columns = append(out.Columns, col)
		}
	}

	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, eris.Wrapf(err, "source: scan row %d of %s", len(out.Records), layer)
		}

		rec := Record{Attributes: make(map[string]any, len(cols)-1)}
		for i, col := range cols {
			if col != geomCol {
				rec.Attributes[col] = vals[i]
				continue
			}
			blob, ok := vals[i].([]byte)
			if !ok || blob == nil {
				continue
			}
			g, err := DecodeGeoPackageGeometry(blob)
			if err != nil {
				return nil, eris.Wrapf(err, "source: decode geometry row %d of %s", len(out.Records), layer)
			}
			rec.Geometry = g
		}
		out.Records = append(out.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "source: iterate layer %s", layer)
	}

	return out, nil
}

// DecodeGeoPackageGeometry parses a GeoPackage binary geometry: the "GP"
// header followed by standard WKB. Empty geometries decode to nil.
func DecodeGeoPackageGeometry(b []byte) (geom.T, error) {
	if len(b) < 8 || b[0] != 'G' || b[1] != 'P' {
		return nil, eris.New("source: not a geopackage geometry")
	}
	flags := b[3]

	var envLen int
	switch (flags >> 1) & 0x07 {
	case 0:
		envLen = 0
	case 1:
		envLen = 32
	case 2, 3:
		envLen = 48
	case 4:
		envLen = 64
	default:
		return nil, eris.Errorf("source: invalid envelope indicator in flags 0x%02x", flags)
	}

	if flags&0x10 != 0 {
		return nil, nil
	}

	start := 8 + envLen
	if len(b) <= start {
		return nil, eris.New("source: truncated geopackage geometry")
	}

	g, err := wkb.Unmarshal(b[start:])
	if err != nil {
		return nil, eris.Wrap(err, "source: decode wkb")
	}
	return g, nil
}

// EncodeGeoPackageGeometry writes g as a GeoPackage binary geometry with no
// envelope.
func EncodeGeoPackageGeometry(g geom.T, srsID int32) ([]byte, error) {
	body, err := wkb.Marshal(g, wkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "source: encode wkb")
	}
	hdr := make([]byte, 8, 8+len(body))
	hdr[0], hdr[1] = 'G', 'P'
	hdr[3] = 0x01 // little-endian header, no envelope
	binary.LittleEndian.PutUint32(hdr[4:], uint32(srsID))
	return append(hdr, body...), nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
