package tastytrade

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/etnz/binnaculum"
	"github.com/etnz/binnaculum/common"
	"github.com/google/uuid"
)

// SnapshotUpdater refreshes the snapshots touched by newly saved movements
// and splits.
type SnapshotUpdater interface {
	Refresh(ctx context.Context, saved binnaculum.Movements) error
	RefreshSplits(ctx context.Context, splits []binnaculum.TickerSplit) error
}

// Source is a named statement to import.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// File returns the Source of a file on disk.
func File(path string) Source {
	return Source{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// Reader returns the Source of an already open statement.
func Reader(name string, r io.Reader) Source {
	return Source{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(r), nil },
	}
}

// FileResult is the outcome of the import of a single file.
type FileResult struct {
	File         string        `json:"file"`
	Success      bool          `json:"success"`
	Transactions int           `json:"transactions"`
	Processed    int           `json:"processed"`
	Skipped      int           `json:"skipped"`
	Errors       []string      `json:"errors,omitempty"`
	Warnings     []string      `json:"warnings,omitempty"`
	NewTickers   []string      `json:"newTickers,omitempty"`
	Elapsed      time.Duration `json:"elapsed"`
}

// ImportResult summarizes an import session.
type ImportResult struct {
	SessionID        string        `json:"sessionId"`
	BrokerAccountID  int           `json:"brokerAccountId"`
	Success          bool          `json:"success"`
	ProcessedRecords int           `json:"processedRecords"`
	SkippedRecords   int           `json:"skippedRecords"`
	TotalRecords     int           `json:"totalRecords"`
	Elapsed          time.Duration `json:"elapsed"`
	Errors           []string      `json:"errors,omitempty"`
	Warnings         []string      `json:"warnings,omitempty"`
	Files            []FileResult  `json:"files"`

	BrokerMovementsCreated int      `json:"brokerMovementsCreated"`
	OptionTradesCreated    int      `json:"optionTradesCreated"`
	StockTradesCreated     int      `json:"stockTradesCreated"`
	DividendsCreated       int      `json:"dividendsCreated"`
	DividendTaxesCreated   int      `json:"dividendTaxesCreated"`
	SplitsCreated          int      `json:"splitsCreated"`
	NewTickers             []string `json:"newTickers,omitempty"`
}

// Importer imports Tastytrade statements into a store, one storage
// transaction per file.
type Importer struct {
	Store   binnaculum.Store
	Updater SnapshotUpdater // optional
	Logger  *common.Logger
	Now     func() time.Time
}

func (im *Importer) now() time.Time {
	if im.Now == nil {
		return time.Now()
	}
	return im.Now()
}

// Import imports the sources into the broker account, in order.
//
// A missing broker account is the only fatal error. Row and file failures are
// reported in the result. When ctx is cancelled the file in progress is not
// saved, the result so far is returned with the context error.
// An empty sessionID starts a new session.
func (im *Importer) Import(ctx context.Context, brokerAccountID int, sessionID string, sources ...Source) (ImportResult, error) {
	log := common.OrSilent(im.Logger)
	start := im.now()
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	res := ImportResult{SessionID: sessionID, BrokerAccountID: brokerAccountID, Success: true}

	if _, err := im.Store.BrokerAccount(ctx, brokerAccountID); err != nil {
		res.Success = false
		res.Errors = append(res.Errors, err.Error())
		res.Elapsed = im.now().Sub(start)
		return res, fmt.Errorf("import session %s: %w", sessionID, err)
	}

	converter := &Converter{
		Resolver: NewStoreResolver(im.Store),
		Logger:   im.Logger,
		Now:      func() binnaculum.DateTime { return binnaculum.NewDateTime(im.now()) },
	}
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			res.Success = false
			res.Errors = append(res.Errors, "import cancelled before "+src.Name)
			res.Elapsed = im.now().Sub(start)
			return res, err
		}
		fr, saved, splits, err := im.importFile(ctx, converter, brokerAccountID, src)
		if err != nil && ctx.Err() != nil {
			res.Success = false
			res.Errors = append(res.Errors, "import cancelled during "+src.Name)
			res.Elapsed = im.now().Sub(start)
			return res, ctx.Err()
		}
		res.add(fr, saved, splits)
		log.Info().Str("session", sessionID).Str("file", fr.File).Int("processed", fr.Processed).
			Int("skipped", fr.Skipped).Dur("elapsed", fr.Elapsed).Msg("file imported")
	}
	res.Elapsed = im.now().Sub(start)
	return res, nil
}

func (r *ImportResult) add(fr FileResult, saved binnaculum.Movements, splits []binnaculum.TickerSplit) {
	r.Files = append(r.Files, fr)
	r.Success = r.Success && fr.Success
	r.ProcessedRecords += fr.Processed
	r.SkippedRecords += fr.Skipped
	r.TotalRecords += fr.Transactions
	r.Errors = append(r.Errors, fr.Errors...)
	r.Warnings = append(r.Warnings, fr.Warnings...)
	r.BrokerMovementsCreated += len(saved.BrokerMovements)
	r.OptionTradesCreated += len(saved.OptionTrades)
	r.StockTradesCreated += len(saved.Trades)
	r.DividendsCreated += len(saved.Dividends)
	r.DividendTaxesCreated += len(saved.DividendTaxes)
	r.SplitsCreated += len(splits)
	r.NewTickers = append(r.NewTickers, fr.NewTickers...)
}

// importFile parses, converts and saves a single source. The returned error
// is a context error, every other failure is reported in the FileResult.
func (im *Importer) importFile(ctx context.Context, converter *Converter, accountID int, src Source) (FileResult, binnaculum.Movements, []binnaculum.TickerSplit, error) {
	start := im.now()
	fr := FileResult{File: src.Name}
	var saved binnaculum.Movements
	fail := func(err error) (FileResult, binnaculum.Movements, []binnaculum.TickerSplit, error) {
		fr.Errors = append(fr.Errors, fmt.Sprintf("%s: %v", src.Name, err))
		fr.Elapsed = im.now().Sub(start)
		return fr, binnaculum.Movements{}, nil, nil
	}

	rc, err := src.Open()
	if err != nil {
		return fail(err)
	}
	defer rc.Close()

	txs, parseErrs, err := Parse(rc, src.Name)
	if err != nil {
		return fail(err)
	}
	for _, pe := range parseErrs {
		fr.Errors = append(fr.Errors, pe.Error())
	}

	conv, err := converter.Convert(ctx, txs, accountID)
	if err != nil {
		return fr, saved, nil, err
	}
	fr.Transactions = len(txs) + len(parseErrs)
	fr.Processed = conv.Processed
	fr.Skipped = conv.Skipped + len(parseErrs)
	fr.Errors = append(fr.Errors, conv.Errors...)
	fr.Warnings = append(fr.Warnings, conv.Warnings...)
	fr.NewTickers = conv.NewTickers

	if conv.Movements.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return fr, saved, nil, err
		}
		saved, err = im.Store.SaveMovements(ctx, conv.Movements)
		if err != nil {
			return fail(fmt.Errorf("saving movements: %w", err))
		}
	}
	splits, err := im.saveSplits(ctx, conv.Splits)
	if err != nil {
		fr.Errors = append(fr.Errors, fmt.Sprintf("%s: saving splits: %v", src.Name, err))
	}

	if im.Updater != nil {
		if saved.Len() > 0 {
			if err := im.Updater.Refresh(ctx, saved); err != nil {
				fr.Errors = append(fr.Errors, fmt.Sprintf("%s: updating snapshots: %v", src.Name, err))
			}
		}
		if len(splits) > 0 {
			if err := im.Updater.RefreshSplits(ctx, splits); err != nil {
				fr.Errors = append(fr.Errors, fmt.Sprintf("%s: updating snapshots after splits: %v", src.Name, err))
			}
		}
	}
	fr.Success = len(fr.Errors) == 0
	fr.Elapsed = im.now().Sub(start)
	return fr, saved, splits, nil
}

// saveSplits stores the splits not already known, so that importing the same
// statement twice does not split the shares twice.
func (im *Importer) saveSplits(ctx context.Context, splits []binnaculum.TickerSplit) ([]binnaculum.TickerSplit, error) {
	var saved []binnaculum.TickerSplit
	for _, sp := range splits {
		known, err := im.Store.TickerSplits(ctx, sp.TickerID)
		if err != nil {
			return saved, err
		}
		if slices.ContainsFunc(known, func(k binnaculum.TickerSplit) bool { return k.Date == sp.Date }) {
			continue
		}
		sp, err = im.Store.SaveTickerSplit(ctx, sp)
		if err != nil {
			return saved, err
		}
		saved = append(saved, sp)
	}
	return saved, nil
}
