package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"image-vault/internal/catalog"
	"image-vault/internal/database"
	"image-vault/internal/ingest"
	"image-vault/internal/library"
	"image-vault/internal/media"
	"image-vault/internal/mediatypes"
	"image-vault/internal/validation"
)

func newFlagSet(a *app, name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: imagevault %s %s\n", name, usage)
		fs.PrintDefaults()
	}
	return fs
}

// filterFlags registers the flags shared by commands that operate on a view.
type filterFlags struct {
	query    *string
	category *string
	tag      *string
}

func addFilterFlags(fs *flag.FlagSet) filterFlags {
	return filterFlags{
		query:    fs.String("query", "", "match name or category substring, or exact tag"),
		category: fs.String("category", "", "only images in this category"),
		tag:      fs.String("tag", "", "only images carrying this tag"),
	}
}

func (f filterFlags) filter() catalog.Filter {
	return catalog.Filter{Query: *f.query, Category: *f.category, Tag: *f.tag}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid image id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func runIngest(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "ingest", "[flags] <file>...")
	category := fs.String("category", "", "category for every file (default "+database.UncategorizedCategory+")")
	tags := fs.String("tags", "", "comma-separated tags for every file")
	record := fs.Int64("record", 0, "external record id to link every file to")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("no files given")
	}

	files := make([]media.Source, 0, fs.NArg())
	for _, path := range fs.Args() {
		src, err := media.ReadFile(path)
		if err != nil {
			return err
		}
		files = append(files, src)
	}

	opts := library.UploadOptions{Category: *category, Tags: splitList(*tags)}
	if *record > 0 {
		id := *record
		opts.RecordID = &id
	}

	report, err := a.lib.Upload(ctx, files, opts, func(p ingest.Progress) {
		fmt.Fprintf(a.stderr, "\rProcessing %d/%d (%d%%)", p.Completed, p.Total, p.Percentage)
		if p.Completed == p.Total {
			fmt.Fprintln(a.stderr)
		}
	})
	if err != nil {
		var rej *validation.Rejection
		if errors.As(err, &rej) {
			for _, inv := range rej.Invalid {
				fmt.Fprintf(a.stderr, "  rejected %s\n", inv)
			}
			if rej.Err != nil {
				return fmt.Errorf("batch rejected: %w", rej.Err)
			}
			return errors.New("batch rejected, nothing was stored")
		}
		return err
	}

	for i := range report.Saved {
		rec := &report.Saved[i]
		fmt.Fprintf(a.stdout, "Saved #%d %s (%dx%d, %s)\n",
			rec.ID, rec.OriginalName, rec.Width, rec.Height, media.FormatFileSize(rec.FileSize))
	}
	for _, fe := range report.Errors {
		fmt.Fprintf(a.stderr, "  failed %s\n", fe)
	}
	if len(report.Errors) > 0 {
		return fmt.Errorf("%d of %d files failed", len(report.Errors), len(files))
	}
	return nil
}

// imageSummary is an image without its payloads.
type imageSummary struct {
	ID           int64     `json:"id"`
	FileName     string    `json:"fileName"`
	OriginalName string    `json:"originalName"`
	FileSize     int64     `json:"fileSize"`
	MimeType     string    `json:"mimeType"`
	Category     string    `json:"category"`
	Tags         []string  `json:"tags"`
	UploadDate   time.Time `json:"uploadDate"`
	RecordID     *int64    `json:"recordId,omitempty"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
}

func summarize(recs []database.ImageRecord) []imageSummary {
	out := make([]imageSummary, len(recs))
	for i := range recs {
		r := &recs[i]
		out[i] = imageSummary{
			ID:           r.ID,
			FileName:     r.FileName,
			OriginalName: r.OriginalName,
			FileSize:     r.FileSize,
			MimeType:     r.MimeType,
			Category:     r.Category,
			Tags:         r.Tags,
			UploadDate:   r.UploadDate,
			RecordID:     r.RecordID,
			Width:        r.Width,
			Height:       r.Height,
		}
	}
	return out
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printImages(w io.Writer, recs []database.ImageRecord, asJSON bool) error {
	if asJSON {
		return writeJSON(w, summarize(recs))
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tTAGS\tSIZE\tDIMENSIONS\tUPLOADED")
	for i := range recs {
		r := &recs[i]
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%dx%d\t%s\n",
			r.ID, r.OriginalName, r.Category, strings.Join(r.Tags, ","),
			media.FormatFileSize(r.FileSize), r.Width, r.Height,
			r.UploadDate.Local().Format("2006-01-02 15:04"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d image(s)\n", len(recs))
	return nil
}

func parseSort(field, order string) (catalog.Sort, error) {
	srt := catalog.DefaultSort
	if field != "" {
		f, ok := mediatypes.ParseSortField(field)
		if !ok {
			return srt, fmt.Errorf("invalid sort field %q (use date, name, size or category)", field)
		}
		srt.Field = f
	}
	if order != "" {
		o, ok := mediatypes.ParseSortOrder(order)
		if !ok {
			return srt, fmt.Errorf("invalid sort order %q (use asc or desc)", order)
		}
		srt.Order = o
	}
	return srt, nil
}

func runList(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "list", "[flags]")
	filters := addFilterFlags(fs)
	record := fs.Int64("record", 0, "only images linked to this external record id")
	sortField := fs.String("sort", "", "sort by date, name, size or category (default date)")
	sortOrder := fs.String("order", "", "asc or desc (default desc)")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	srt, err := parseSort(*sortField, *sortOrder)
	if err != nil {
		return err
	}

	if *record > 0 {
		recs, err := a.db.GetByRecordID(ctx, *record)
		if err != nil {
			return err
		}
		return printImages(a.stdout, catalog.Apply(recs, filters.filter(), srt), *asJSON)
	}

	view, err := a.catalog.View(ctx, filters.filter(), srt)
	if err != nil {
		return err
	}
	return printImages(a.stdout, view.Records, *asJSON)
}

func runSearch(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "search", "[flags] <query>")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("no search query given")
	}

	recs, err := a.db.Search(ctx, strings.Join(fs.Args(), " "))
	if err != nil {
		return err
	}
	return printImages(a.stdout, recs, *asJSON)
}

func getImage(ctx context.Context, a *app, id int64) (*database.ImageRecord, error) {
	rec, err := a.db.Get(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("image %d not found", id)
	}
	return rec, err
}

func runShow(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "show", "[flags] <id>")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one image id")
	}
	ids, err := parseIDs(fs.Args())
	if err != nil {
		return err
	}

	rec, err := getImage(ctx, a, ids[0])
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(a.stdout, summarize([]database.ImageRecord{*rec})[0])
	}

	record := "-"
	if rec.RecordID != nil {
		record = strconv.FormatInt(*rec.RecordID, 10)
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%d\n", rec.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", rec.OriginalName)
	fmt.Fprintf(tw, "File:\t%s\n", rec.FileName)
	fmt.Fprintf(tw, "Type:\t%s\n", rec.MimeType)
	fmt.Fprintf(tw, "Size:\t%s\n", media.FormatFileSize(rec.FileSize))
	fmt.Fprintf(tw, "Dimensions:\t%dx%d\n", rec.Width, rec.Height)
	fmt.Fprintf(tw, "Category:\t%s\n", rec.Category)
	fmt.Fprintf(tw, "Tags:\t%s\n", strings.Join(rec.Tags, ", "))
	fmt.Fprintf(tw, "Record:\t%s\n", record)
	fmt.Fprintf(tw, "Uploaded:\t%s\n", rec.UploadDate.Local().Format(time.RFC3339))
	return tw.Flush()
}

func runUpdate(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "update", "[flags] <id>")
	name := fs.String("name", "", "new display name")
	category := fs.String("category", "", "new category")
	tags := fs.String("tags", "", "replace tags with this comma-separated list (empty clears)")
	record := fs.Int64("record", 0, "link to this external record id")
	unlink := fs.Bool("unlink", false, "remove the external record link")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one image id")
	}
	ids, err := parseIDs(fs.Args())
	if err != nil {
		return err
	}

	var patch database.ImagePatch
	changed := false
	fs.Visit(func(f *flag.Flag) {
		changed = true
		switch f.Name {
		case "name":
			patch.OriginalName = name
		case "category":
			patch.Category = category
		case "tags":
			patch.Tags = append(make([]string, 0), splitList(*tags)...)
		case "record":
			patch.RecordID = record
		case "unlink":
			patch.ClearRecordID = *unlink
		}
	})
	if !changed {
		return errors.New("nothing to update")
	}

	rec, err := a.db.Update(ctx, ids[0], patch)
	if errors.Is(err, database.ErrNotFound) {
		return fmt.Errorf("image %d not found", ids[0])
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Updated #%d %s\n", rec.ID, rec.OriginalName)
	return nil
}

func runStats(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "stats", "[flags]")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	stats, err := a.db.GetStats(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(a.stdout, stats)
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Images:\t%d\n", stats.TotalImages)
	fmt.Fprintf(tw, "Total size:\t%s\n", media.FormatFileSize(stats.TotalSize))
	fmt.Fprintf(tw, "Average size:\t%s\n", media.FormatFileSize(int64(stats.AverageSize)))
	fmt.Fprintf(tw, "Categories:\t%d\n", stats.TotalCategories)
	fmt.Fprintf(tw, "Tags:\t%d\n", stats.TotalTags)
	return tw.Flush()
}

// selectImages builds a selection from explicit ids or, with all set, from
// every image matching the filter flags.
func selectImages(ctx context.Context, a *app, f catalog.Filter, all bool, args []string) (*catalog.Selection, error) {
	if all == (len(args) > 0) {
		return nil, errors.New("give either image ids or -all")
	}

	view, err := a.catalog.View(ctx, f, catalog.DefaultSort)
	if err != nil {
		return nil, err
	}
	sel := catalog.NewSelection(view)

	if all {
		sel.SelectAll()
		return sel, nil
	}

	ids, err := parseIDs(args)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if !view.Contains(id) {
			return nil, fmt.Errorf("image %d not found", id)
		}
		if !sel.IsSelected(id) {
			sel.Toggle(id)
		}
	}
	return sel, nil
}

func runDelete(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "delete", "[flags] [<id>...]")
	filters := addFilterFlags(fs)
	all := fs.Bool("all", false, "delete every image matching the filter flags")
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// A single id goes straight to the store so a miss is reported.
	if !*all && fs.NArg() == 1 {
		ids, err := parseIDs(fs.Args())
		if err != nil {
			return err
		}
		rec, err := getImage(ctx, a, ids[0])
		if err != nil {
			return err
		}
		if err := a.confirm(fmt.Sprintf("Delete image #%d %s?", rec.ID, rec.OriginalName), *yes); err != nil {
			return err
		}
		if err := a.db.Delete(ctx, rec.ID); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Deleted 1 image\n")
		return nil
	}

	sel, err := selectImages(ctx, a, filters.filter(), *all, fs.Args())
	if err != nil {
		return err
	}
	if sel.Len() == 0 {
		fmt.Fprintln(a.stdout, "No images selected")
		return nil
	}
	if err := a.confirm(fmt.Sprintf("Delete %d images?", sel.Len()), *yes); err != nil {
		return err
	}

	n, err := a.catalog.BulkDelete(ctx, sel)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Deleted %d image(s)\n", n)
	return nil
}

// downloadPath names a payload after the image with the extension of the
// stored format, adding the id when that name is taken.
func downloadPath(dir string, dl *catalog.Download) string {
	base := filepath.Base(dl.Name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = fmt.Sprintf("image-%d", dl.ID)
	}
	ext := mediatypes.ExtensionFor(dl.MimeType)

	path := filepath.Join(dir, stem+ext)
	if _, err := os.Stat(path); err == nil {
		path = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, dl.ID, ext))
	}
	return path
}

func runDownload(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "download", "[flags] [<id>...]")
	filters := addFilterFlags(fs)
	all := fs.Bool("all", false, "download every image matching the filter flags")
	out := fs.String("out", ".", "directory to write files to")
	if err := fs.Parse(args); err != nil {
		return err
	}

	sel, err := selectImages(ctx, a, filters.filter(), *all, fs.Args())
	if err != nil {
		return err
	}
	downloads, err := a.catalog.DownloadSelected(sel)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for i := range downloads {
		path := downloadPath(*out, &downloads[i])
		if err := os.WriteFile(path, downloads[i].Data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Fprintf(a.stdout, "Wrote %s (%s)\n", path, media.FormatFileSize(int64(len(downloads[i].Data))))
	}
	return nil
}

func runCategories(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "categories", "[flags]")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cats, err := a.db.Categories(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(a.stdout, cats)
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCOLOR\tDESCRIPTION")
	for _, c := range cats {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.ID, c.Name, c.Color, c.Description)
	}
	return tw.Flush()
}

func runAddCategory(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "add-category", "[flags] <name>")
	description := fs.String("description", "", "category description")
	color := fs.String("color", "", "hex color such as #3B82F6 (default random)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("no category name given")
	}

	c := database.Category{
		Name:        strings.Join(fs.Args(), " "),
		Description: *description,
		Color:       *color,
	}
	if c.Color == "" {
		c.Color = database.RandomColor()
	}

	id, err := a.db.SaveCategory(ctx, c)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Created category #%d %s (%s)\n", id, strings.TrimSpace(c.Name), c.Color)
	return nil
}

func runTags(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "tags", "[flags]")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tags, err := a.db.Tags(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return writeJSON(a.stdout, tags)
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCOLOR")
	for _, t := range tags {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", t.ID, t.Name, t.Color)
	}
	return tw.Flush()
}

func runAddTag(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "add-tag", "<name>")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("no tag name given")
	}

	tag, err := a.lib.AddTag(ctx, strings.Join(fs.Args(), " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Created tag #%d %s (%s)\n", tag.ID, tag.Name, tag.Color)
	return nil
}

// readRawJSON loads an optional JSON file to embed in an export.
func readRawJSON(path string) (json.RawMessage, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s is not valid JSON", path)
	}
	return json.RawMessage(data), nil
}

func runExport(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "export", "[flags]")
	out := fs.String("out", "-", "file to write, - for stdout")
	recordsFile := fs.String("records", "", "JSON file with external records to embed (default: stored records)")
	settingsFile := fs.String("settings", "", "JSON file with settings to embed (default: stored settings)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	records, err := readRawJSON(*recordsFile)
	if err != nil {
		return err
	}
	settings, err := readRawJSON(*settingsFile)
	if err != nil {
		return err
	}

	doc, err := a.db.Export(ctx, records, settings)
	if err != nil {
		return err
	}

	if *out == "-" {
		return writeJSON(a.stdout, doc)
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := writeJSON(f, doc); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(a.stderr, "Exported %d images, %d categories and %d tags to %s\n",
		len(doc.Images), len(doc.Categories), len(doc.Tags), *out)
	return nil
}

func runImport(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "import", "[flags] <file>")
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("expected exactly one export file")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	var doc database.ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", fs.Arg(0), err)
	}

	prompt := fmt.Sprintf("Replace the whole library with %d images from %s?", len(doc.Images), fs.Arg(0))
	if err := a.confirm(prompt, *yes); err != nil {
		return err
	}
	if err := a.db.Import(ctx, &doc); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Imported %d images, %d categories and %d tags\n",
		len(doc.Images), len(doc.Categories), len(doc.Tags))
	return nil
}

func runClear(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "clear", "[flags]")
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.confirm("Remove every image, category and tag?", *yes); err != nil {
		return err
	}
	if err := a.db.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Library cleared")
	return nil
}
