package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/amazon-tagger/internal/domain/model"
	"github.com/eshaffer321/amazon-tagger/internal/domain/money"
)

// SourceStatement is the MalformedInputError source of statement imports
const SourceStatement = "ledger"

// ParseOFX reads the bank and credit card transactions of an OFX statement.
// The FITID becomes the transaction id.
func ParseOFX(r io.Reader) ([]model.LedgerTransaction, error) {
	resp, err := ofxgo.ParseResponse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX: %w", err)
	}

	msgs := make([]ofxgo.Message, 0, len(resp.Bank)+len(resp.CreditCard))
	msgs = append(msgs, resp.Bank...)
	msgs = append(msgs, resp.CreditCard...)
	if len(msgs) == 0 {
		return nil, fmt.Errorf("OFX file has no bank or credit card statements")
	}

	var out []model.LedgerTransaction
	for _, msg := range msgs {
		var list *ofxgo.TransactionList
		switch s := msg.(type) {
		case *ofxgo.StatementResponse:
			list = s.BankTranList
		case *ofxgo.CCStatementResponse:
			list = s.BankTranList
		}
		if list == nil {
			continue
		}

		for _, t := range list.Transactions {
			amount, err := decimal.NewFromString(t.TrnAmt.String())
			if err != nil {
				return nil, fmt.Errorf("invalid amount for FITID %s: %w", t.FiTID, err)
			}

			name := string(t.Name)
			if name == "" && t.Payee != nil {
				name = string(t.Payee.Name)
			}
			desc := string(t.Memo)
			if desc == "" {
				desc = name
			}

			posted := t.DtPosted.Time
			out = append(out, model.LedgerTransaction{
				ID:           string(t.FiTID),
				Date:         time.Date(posted.Year(), posted.Month(), posted.Day(), 0, 0, 0, 0, time.UTC),
				MerchantName: name,
				Amount:       money.New(amount).Round(),
				Description:  desc,
			})
		}
	}
	return out, nil
}

var requiredStatementColumns = []string{"id", "date", "amount"}

// ParseCSV reads a ledger export with the columns
// id,date,merchant,amount,category,description,notes,pending. Amounts are
// signed, debits negative. Bad rows are returned as warnings.
func ParseCSV(r io.Reader) ([]model.LedgerTransaction, []error, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read statement header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, required := range requiredStatementColumns {
		if _, ok := cols[required]; !ok {
			return nil, nil, fmt.Errorf("statement is missing column %q", required)
		}
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read statement: %w", err)
	}

	var out []model.LedgerTransaction
	var warnings []error
	for i, rec := range records {
		get := func(col string) string {
			idx, ok := cols[col]
			if !ok || idx >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[idx])
		}
		bad := func(field string, err error) {
			warnings = append(warnings, &model.MalformedInputError{Source: SourceStatement, Row: i + 1, Field: field, Err: err})
		}

		id := get("id")
		if id == "" {
			bad("id", errors.New("missing transaction id"))
			continue
		}
		date, err := parseStatementDate(get("date"))
		if err != nil {
			bad("date", err)
			continue
		}
		amount, err := money.Parse(get("amount"))
		if err != nil {
			bad("amount", err)
			continue
		}
		pending := false
		if p := get("pending"); p != "" {
			pending, err = strconv.ParseBool(p)
			if err != nil {
				bad("pending", err)
				continue
			}
		}

		out = append(out, model.LedgerTransaction{
			ID:           id,
			Date:         date,
			MerchantName: get("merchant"),
			Amount:       amount,
			Category:     get("category"),
			Description:  get("description"),
			Notes:        get("notes"),
			Pending:      pending,
		})
	}
	return out, warnings, nil
}

func parseStatementDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "01/02/2006", "01/02/06"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date %q", s)
}
