// Command lumina-export reads one filter string per stdin line, unions the
// matching media across all of them, and writes a self-contained snapshot
// directory under out_dir: copied derivatives and source files, plus a CSV
// whose columns are the default media fields unioned with every distinct
// custom-metadata key on the exported set. Grounded on the original
// implementation's export/src/main.rs (§6 `export <config> <out_dir>`); the
// original copies its sqlite catalog file wholesale and deletes the
// non-matching rows in place, which has no equivalent for a shared Postgres
// catalog, so the snapshot here carries a pruned JSON dump of the exported
// rows (media, tags, albums, custom metadata) instead of a copied database
// file.
package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"lumina/internal/catalog"
	"lumina/internal/filter"
	"lumina/internal/logging"
	"lumina/internal/state"
	"lumina/internal/task"
	"lumina/internal/views"
)

type exportRow struct {
	Media          catalog.Media
	Tags           []catalog.Tag
	Albums         []catalog.Album
	CustomMetadata []catalog.CustomMetadata
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: lumina-export <out_dir>")
		os.Exit(2)
	}
	outPath := os.Args[1]

	s, err := state.Bootstrap()
	if err != nil {
		fmt.Fprintf(os.Stderr, "lumina-export: bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer state.Shutdown(s)

	logging.Init(s.Config.Server.DevMode, s.Config.Server.LogLevel)
	log := logging.L()

	ctx := context.Background()

	queries, err := readQueries(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lumina-export: %v\n", err)
		os.Exit(2)
	}
	if len(queries) == 0 {
		fmt.Fprintln(os.Stderr, "lumina-export: no filter strings on stdin")
		os.Exit(2)
	}

	seen := map[int64]bool{}
	var included []catalog.Media
	for _, q := range queries {
		parsed, err := filter.Parse(q, views.MediaFields)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lumina-export: parse filter %q: %v\n", q, err)
			os.Exit(2)
		}
		media, _, err := views.QueryMedia(ctx, s.Cat, parsed)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lumina-export: query %q: %v\n", q, err)
			os.Exit(1)
		}
		for _, m := range media {
			if !seen[m.ID] {
				seen[m.ID] = true
				included = append(included, m)
			}
		}
	}
	log.Infow("lumina-export: resolved media set", "filters", len(queries), "media", len(included))

	exportDir, dataDir, mediaDir, err := makeSnapshotDirs(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lumina-export: %v\n", err)
		os.Exit(1)
	}

	rows := make([]exportRow, 0, len(included))
	customKeySet := map[string]bool{}
	for _, m := range included {
		row := exportRow{Media: m}
		row.Tags, err = s.Cat.TagsForMedia(ctx, m.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lumina-export: tags for media %d: %v\n", m.ID, err)
			os.Exit(1)
		}
		row.Albums, err = s.Cat.AlbumsForMedia(ctx, m.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lumina-export: albums for media %d: %v\n", m.ID, err)
			os.Exit(1)
		}
		row.CustomMetadata, err = s.Cat.LatestCustomMetadata(ctx, m.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lumina-export: custom metadata for media %d: %v\n", m.ID, err)
			os.Exit(1)
		}
		for _, cm := range row.CustomMetadata {
			customKeySet[cm.Key] = true
		}
		rows = append(rows, row)
	}

	customKeys := make([]string, 0, len(customKeySet))
	for k := range customKeySet {
		customKeys = append(customKeys, k)
	}
	sort.Strings(customKeys)

	if err := writeCatalogSnapshot(filepath.Join(exportDir, "catalog.json"), rows); err != nil {
		fmt.Fprintf(os.Stderr, "lumina-export: write catalog snapshot: %v\n", err)
		os.Exit(1)
	}

	if err := writeCSV(filepath.Join(exportDir, "out.csv"), rows, customKeys); err != nil {
		fmt.Fprintf(os.Stderr, "lumina-export: write csv: %v\n", err)
		os.Exit(1)
	}

	for _, row := range rows {
		m := row.Media
		if m.HasThumbnail {
			if err := copyDerivative(s.Config.Data.DataDir, dataDir, &m, false); err != nil {
				log.Warnw("lumina-export: copy thumb", "media", m.ID, "error", err)
			}
			if err := copyDerivative(s.Config.Data.DataDir, dataDir, &m, true); err != nil {
				log.Warnw("lumina-export: copy full", "media", m.ID, "error", err)
			}
		}
		if err := copyFile(m.Path, filepath.Join(mediaDir, m.Name)); err != nil {
			log.Warnw("lumina-export: copy source media", "media", m.ID, "path", m.Path, "error", err)
		}
	}

	log.Infow("lumina-export: complete", "out_dir", exportDir, "media", len(rows))
	fmt.Println(exportDir)
}

// readQueries reads one non-blank filter string per line; blank lines are
// skipped rather than treated as the empty (match-everything) query, since a
// stray trailing newline on stdin shouldn't silently export the whole
// library.
func readQueries(r io.Reader) ([]string, error) {
	var queries []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		queries = append(queries, line)
	}
	return queries, scanner.Err()
}

func makeSnapshotDirs(outPath string) (exportDir, dataDir, mediaDir string, err error) {
	exportDir = filepath.Join(outPath, "lumina_export_"+time.Now().UTC().Format("20060102_150405"))
	dataDir = filepath.Join(exportDir, "data")
	mediaDir = filepath.Join(exportDir, "media")
	for _, d := range []string{exportDir, dataDir, mediaDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return "", "", "", fmt.Errorf("create %s: %w", d, err)
		}
	}
	return exportDir, dataDir, mediaDir, nil
}

func copyDerivative(srcDataDir, dstDataDir string, m *catalog.Media, full bool) error {
	src := task.DerivativePath(srcDataDir, m, full)
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil
	}
	return copyFile(src, task.DerivativePath(dstDataDir, m, full))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func writeCatalogSnapshot(path string, rows []exportRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

var csvColumns = []string{
	"id", "uuid", "name", "path", "width", "height", "class", "format",
	"duration_ms", "content_hash", "is_screenshot", "longitude", "latitude",
	"liked", "has_thumbnail", "authored_at", "tags", "albums",
}

func writeCSV(path string, rows []exportRow, customKeys []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(append(append([]string{}, csvColumns...), customKeys...)); err != nil {
		return err
	}

	for _, row := range rows {
		if err := w.Write(csvRecord(row, customKeys)); err != nil {
			return err
		}
	}
	return nil
}

func csvRecord(row exportRow, customKeys []string) []string {
	m := row.Media

	tagNames := make([]string, len(row.Tags))
	for i, t := range row.Tags {
		tagNames[i] = t.Name
	}
	albumNames := make([]string, len(row.Albums))
	for i, a := range row.Albums {
		albumNames[i] = a.Name
	}

	durationMS := ""
	if m.DurationMS != nil {
		durationMS = strconv.FormatInt(*m.DurationMS, 10)
	}
	longitude, latitude := "", ""
	if m.Longitude != nil {
		longitude = strconv.FormatFloat(*m.Longitude, 'f', -1, 64)
	}
	if m.Latitude != nil {
		latitude = strconv.FormatFloat(*m.Latitude, 'f', -1, 64)
	}

	rec := []string{
		strconv.FormatInt(m.ID, 10),
		m.UUID.String(),
		m.Name,
		m.Path,
		strconv.Itoa(m.Width),
		strconv.Itoa(m.Height),
		string(m.Class),
		m.Format,
		durationMS,
		m.ContentHash,
		strconv.FormatBool(m.IsScreenshot),
		longitude,
		latitude,
		strconv.FormatBool(m.Liked),
		strconv.FormatBool(m.HasThumbnail),
		m.AuthoredAt.Format(time.RFC3339),
		strings.Join(tagNames, ","),
		strings.Join(albumNames, ","),
	}

	byKey := make(map[string]string, len(row.CustomMetadata))
	for _, cm := range row.CustomMetadata {
		byKey[cm.Key] = cm.Value
	}
	for _, k := range customKeys {
		rec = append(rec, byKey[k])
	}
	return rec
}
