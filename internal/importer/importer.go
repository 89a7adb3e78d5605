// Package importer loads the club's member register from its CSV export.
package importer

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/medlem-go/internal/model"
	"github.com/olegiv/medlem-go/internal/store"
	"github.com/olegiv/medlem-go/internal/util"
)

// Normalized column names. Headers are transliterated and lowercased, so
// "Förnamn" matches colFirstName and "E-post" matches colEmail.
const (
	colBirthDate   = "fodelsedatum"
	colFirstName   = "fornamn"
	colLastName    = "efternamn"
	colEmail       = "e_post"
	colMobile      = "mobiltelefon"
	colPhone       = "telefonnr"
	colAddress     = "adress"
	colPostalCode  = "postnr"
	colCity        = "ort"
	colComment     = "kommentar"
	colNoMailing   = "ejutskick"
	colCrewRole    = "besattningroll"
	colMaintenance = "underhallroll"
)

// lifeMemberMark in a payment column marks a life member.
const lifeMemberMark = "SM"

// paymentColumn matches year columns such as "b24".
var paymentColumn = regexp.MustCompile(`^b(\d{2})$`)

// dateLayouts are the date formats seen in the export.
var dateLayouts = []string{
	model.DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"02.01.2006",
	"2.1.2006",
	"20060102",
}

// ImportOptions configures an import run.
type ImportOptions struct {
	// DryRun parses and validates without writing.
	DryRun bool
	// PaymentAmount is the amount recorded for imported payments.
	PaymentAmount float64
	// CreateRoles adds role names missing from the database instead of
	// ignoring them.
	CreateRoles bool
}

// DefaultImportOptions returns the options used by the CLI and admin page.
func DefaultImportOptions() ImportOptions {
	return ImportOptions{PaymentAmount: 300}
}

// Importer reads member CSV files into the database.
type Importer struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewImporter creates an Importer.
func NewImporter(db *sql.DB, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{db: db, logger: logger, now: time.Now}
}

// ImportFromFile imports the CSV file at path.
func (i *Importer) ImportFromFile(ctx context.Context, path string, opts ImportOptions) (*ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return i.Import(ctx, f, opts)
}

// row is one parsed CSV record.
type row struct {
	line     int
	member   store.CreateMemberParams
	roles    []string
	payments map[int64]string // year -> date
}

// Import reads CSV from r. Every valid row is written in its own
// transaction, so one bad row does not undo the others. The returned error
// is only set when the file itself cannot be read.
func (i *Importer) Import(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	result := NewImportResult(opts.DryRun)
	if opts.PaymentAmount <= 0 {
		opts.PaymentAmount = DefaultImportOptions().PaymentAmount
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty CSV file")
		}
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	columns := normalizeHeader(header)
	if _, ok := columns[colLastName]; !ok {
		return nil, fmt.Errorf("CSV header has no %q column", "Efternamn")
	}

	roles, err := i.roleIDs(ctx)
	if err != nil {
		return nil, err
	}

	i.logger.Info("csv import started", "batch_id", result.BatchID, "dry_run", opts.DryRun)

	emails := make(map[string]int)
	line := 1
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			result.Skip(line, err.Error())
			continue
		}
		if blank(record) {
			continue
		}
		result.Rows++

		rw, err := i.parseRow(line, columns, record, len(header))
		if err != nil {
			result.Skip(line, err.Error())
			continue
		}
		if err := i.checkNew(ctx, rw); err != nil {
			result.Skip(line, err.Error())
			continue
		}
		if e := rw.member.Email.String; e != "" {
			if first, dup := emails[e]; dup {
				result.Skip(line, fmt.Sprintf("email %s already used on line %d", e, first))
				continue
			}
			emails[e] = line
		}
		if opts.DryRun {
			result.IncrementCreated(EntityMember)
			continue
		}
		if err := i.writeRow(ctx, rw, roles, opts, result); err != nil {
			i.logger.Warn("csv import row failed", "batch_id", result.BatchID, "line", line, "error", err)
			result.Fail(line, err.Error())
		}
	}

	level := slog.LevelInfo
	if !result.Success() {
		level = slog.LevelWarn
	}
	i.logger.Log(ctx, level, "csv import finished",
		"batch_id", result.BatchID,
		"rows", result.Rows,
		"members", result.Created[EntityMember],
		"payments", result.Created[EntityPayment],
		"skipped", len(result.Skipped),
		"failed", len(result.Failed),
		"category", model.EventCategoryImport,
	)
	return result, nil
}

func normalizeHeader(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for idx, h := range header {
		name := util.Identifier(strings.TrimPrefix(h, "\ufeff"), "_")
		if _, dup := columns[name]; !dup {
			columns[name] = idx
		}
	}
	return columns
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (i *Importer) parseRow(line int, columns map[string]int, record []string, width int) (row, error) {
	if len(record) != width {
		return row{}, fmt.Errorf("expected %d columns, got %d", width, len(record))
	}
	get := func(col string) string {
		idx, ok := columns[col]
		if !ok {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	lastName := get(colLastName)
	if lastName == "" {
		return row{}, errors.New("last name is missing")
	}

	birth := get(colBirthDate)
	if birth != "" {
		d, ok := parseDate(birth)
		if !ok {
			return row{}, fmt.Errorf("invalid birth date %q", birth)
		}
		birth = d
	}

	now := i.now()
	rw := row{
		line: line,
		member: store.CreateMemberParams{
			BirthDate:  birth,
			FirstName:  get(colFirstName),
			LastName:   lastName,
			Email:      util.NullStringFromValue(strings.ToLower(get(colEmail))),
			Mobile:     get(colMobile),
			Phone:      get(colPhone),
			Address:    get(colAddress),
			PostalCode: get(colPostalCode),
			City:       get(colCity),
			Comment:    get(colComment),
			// The export has "Nej" in EjUtskick for members who should not
			// get mailings.
			AcceptsCommunication: !strings.EqualFold(get(colNoMailing), "nej"),
			CreatedAt:            now,
			UpdatedAt:            now,
		},
		payments: make(map[int64]string),
	}

	for _, col := range []string{colCrewRole, colMaintenance} {
		for _, name := range strings.Split(get(col), ",") {
			if name = strings.TrimSpace(name); name != "" {
				rw.roles = append(rw.roles, name)
			}
		}
	}

	for name, idx := range columns {
		m := paymentColumn.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		v := strings.TrimSpace(record[idx])
		if strings.EqualFold(v, lifeMemberMark) {
			rw.member.LifeMember = true
			continue
		}
		d, ok := parseDate(v)
		if !ok {
			continue
		}
		yy, _ := strconv.Atoi(m[1])
		rw.payments[int64(2000+yy)] = d
	}
	return rw, nil
}

func parseDate(s string) (string, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(model.DateLayout), true
		}
	}
	return "", false
}

func (i *Importer) checkNew(ctx context.Context, rw row) error {
	if !rw.member.Email.Valid {
		return nil
	}
	_, err := store.New(i.db).GetMemberByEmail(ctx, rw.member.Email.String)
	switch {
	case err == nil:
		return fmt.Errorf("member with email %s already exists", rw.member.Email.String)
	case errors.Is(err, sql.ErrNoRows):
		return nil
	default:
		return err
	}
}

func (i *Importer) roleIDs(ctx context.Context) (map[string]int64, error) {
	roles, err := store.New(i.db).ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	ids := make(map[string]int64, len(roles))
	for _, r := range roles {
		ids[strings.ToLower(r.Name)] = r.ID
	}
	return ids, nil
}

func (i *Importer) writeRow(ctx context.Context, rw row, roles map[string]int64, opts ImportOptions, result *ImportResult) error {
	var createdRoles, createdPayments []string
	err := store.InTx(ctx, i.db, func(q *store.Queries) error {
		createdRoles, createdPayments = nil, nil

		m, err := q.CreateMember(ctx, rw.member)
		if err != nil {
			return fmt.Errorf("creating member: %w", err)
		}

		seen := make(map[int64]bool)
		for _, name := range rw.roles {
			id, ok := roles[strings.ToLower(name)]
			if !ok {
				if !opts.CreateRoles {
					i.logger.Debug("unknown role in CSV", "role", name, "line", rw.line)
					continue
				}
				r, err := q.CreateRole(ctx, name, "")
				if err != nil {
					return fmt.Errorf("creating role %s: %w", name, err)
				}
				id = r.ID
				createdRoles = append(createdRoles, name)
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			if err := q.AddMemberRole(ctx, m.ID, id); err != nil {
				return fmt.Errorf("adding role %s: %w", name, err)
			}
		}

		for year, date := range rw.payments {
			_, err := q.CreatePayment(ctx, store.CreatePaymentParams{
				MemberID:  m.ID,
				Amount:    opts.PaymentAmount,
				Date:      date,
				Year:      year,
				Comment:   "Automatskapad vid import " + result.BatchID,
				CreatedAt: i.now(),
			})
			if err != nil {
				return fmt.Errorf("creating payment for %d: %w", year, err)
			}
			createdPayments = append(createdPayments, date)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Roles created in a committed row are reused by later rows.
	for _, name := range createdRoles {
		r, err := store.New(i.db).GetRoleByName(ctx, name)
		if err == nil {
			roles[strings.ToLower(name)] = r.ID
		}
		result.IncrementCreated(EntityRole)
	}
	result.IncrementCreated(EntityMember)
	for range createdPayments {
		result.IncrementCreated(EntityPayment)
	}
	return nil
}
