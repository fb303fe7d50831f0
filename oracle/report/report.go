package report

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/tidwall/gjson"

	"github.com/GPTx-global/drpost/oracle/types"
)

// ExplorerPlaceholder is displayed instead of a link when no explorer base
// URL is configured.
const ExplorerPlaceholder = "Configure env.SEDA_EXPLORER_URL to generate a link to your DR"

// TimestampFormat matches the ISO-8601 form used for memos.
const TimestampFormat = types.MemoTimeFormat

// row keys
const (
	KeyVersion        = "version"
	KeyDrID           = "drId"
	KeyConsensus      = "consensus"
	KeyExitCode       = "exitCode"
	KeyResult         = "result"
	KeyResultAsUTF8   = "resultAsUtf8"
	KeyBlockHeight    = "blockHeight"
	KeyDrBlockHeight  = "drBlockHeight"
	KeyBlockTimestamp = "blockTimestamp"
	KeyGasUsed        = "gasUsed"
	KeyPaybackAddress = "paybackAddress"
	KeySedaPayload    = "sedaPayload"
	KeyExplorerLink   = "explorerLink"
)

type Row struct {
	Key   string
	Value string
}

// Record is the display form of a data request result. Row order is stable.
type Record struct {
	Rows []Row
}

// ExplorerLink builds <base>/data-requests/<drId>/<drBlockHeight>, or returns
// the placeholder when base is empty.
func ExplorerLink(base, drID string, drBlockHeight uint64) string {
	if base == "" {
		return ExplorerPlaceholder
	}

	return fmt.Sprintf("%s/data-requests/%s/%d", base, drID, drBlockHeight)
}

func NewRecord(res *types.DataRequestResult, explorerBase string) Record {
	timestamp := ""
	if res.BlockTimestamp != nil {
		timestamp = res.BlockTimestamp.UTC().Format(TimestampFormat)
	}

	rows := []Row{
		{KeyVersion, res.Version},
		{KeyDrID, res.DrID},
		{KeyConsensus, strconv.FormatBool(res.Consensus)},
		{KeyExitCode, strconv.FormatUint(uint64(res.ExitCode), 10)},
		{KeyResult, hex.EncodeToString(res.Result)},
	}
	if text, ok := res.ResultAsUTF8(); ok {
		rows = append(rows, Row{KeyResultAsUTF8, text})
	}
	rows = append(rows,
		Row{KeyBlockHeight, strconv.FormatUint(res.BlockHeight, 10)},
		Row{KeyDrBlockHeight, strconv.FormatUint(res.DrBlockHeight, 10)},
		Row{KeyBlockTimestamp, timestamp},
		Row{KeyGasUsed, res.GasUsed},
		Row{KeyPaybackAddress, res.PaybackAddress},
		Row{KeySedaPayload, res.SedaPayload},
		Row{KeyExplorerLink, ExplorerLink(explorerBase, res.DrID, res.DrBlockHeight)},
	)

	return Record{Rows: rows}
}

func (r Record) Get(key string) (string, bool) {
	for _, row := range r.Rows {
		if row.Key == key {
			return row.Value, true
		}
	}
	return "", false
}

// Render writes the record as a two column console table.
func (r Record) Render(w io.Writer) {
	table := newTable(w, []string{"(index)", "Values"})
	for _, row := range r.Rows {
		table.Append([]string{row.Key, row.Value})
	}
	table.Render()
}

// Market is one entry of the PolyMarket oracle program output.
type Market struct {
	YesPrice string
	Closed   bool
}

// Markets decodes a {"markets":[{"yes_price":..,"closed":..}]} result. It
// reports false for any other result shape.
func Markets(res *types.DataRequestResult) ([]Market, bool) {
	text, ok := res.ResultAsUTF8()
	if !ok {
		return nil, false
	}

	return ParseMarkets([]byte(text))
}

// ParseMarkets decodes the raw program output.
func ParseMarkets(data []byte) ([]Market, bool) {
	if !gjson.ValidBytes(data) {
		return nil, false
	}

	list := gjson.GetBytes(data, "markets")
	if !list.IsArray() {
		return nil, false
	}

	markets := make([]Market, 0, len(list.Array()))
	list.ForEach(func(_, value gjson.Result) bool {
		markets = append(markets, Market{
			YesPrice: value.Get("yes_price").String(),
			Closed:   value.Get("closed").Bool(),
		})
		return true
	})

	return markets, true
}

func RenderMarkets(w io.Writer, markets []Market) {
	table := newTable(w, []string{"(index)", "yes_price", "closed"})
	for i, m := range markets {
		table.Append([]string{strconv.Itoa(i), m.YesPrice, strconv.FormatBool(m.Closed)})
	}
	table.Render()
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}
