package importer

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"fjacquet/txledger/internal/ingesterror"
	"fjacquet/txledger/internal/logging"
	"fjacquet/txledger/internal/models"
	"fjacquet/txledger/internal/xmlutils"
)

// CAMTReader reads ISO 20022 CAMT.053 bank-to-customer statements.
type CAMTReader struct {
	logger logging.Logger
}

// NewCAMTReader creates a CAMTReader.
func NewCAMTReader(logger logging.Logger) *CAMTReader {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CAMTReader{logger: logger}
}

// Read returns one event per booked entry. The statement account (IBAN, or
// proprietary id) becomes the account reference; the bank's servicer
// reference becomes the external id. Pending entries are skipped.
func (c *CAMTReader) Read(r io.Reader, orgID string) ([]models.IngestEvent, error) {
	root, err := xmlutils.Parse(r)
	if err != nil {
		return nil, &ingesterror.InvalidFormatError{ExpectedFormat: "CAMT.053", Msg: err.Error()}
	}

	if !xmlutils.Has(root, "//BkToCstmrStmt") {
		return nil, &ingesterror.InvalidFormatError{ExpectedFormat: "CAMT.053", Msg: "document is not a bank-to-customer statement"}
	}

	statements, err := xmlutils.Nodes(root, xmlutils.XPathStatement)
	if err != nil {
		return nil, err
	}
	if len(statements) == 0 {
		return nil, &ingesterror.InvalidFormatError{ExpectedFormat: "CAMT.053", Msg: "no statements found"}
	}

	var events []models.IngestEvent
	for _, stmt := range statements {
		account := xmlutils.First(stmt, xmlutils.XPathAccountIBAN, xmlutils.XPathAccountOther)

		entries, err := xmlutils.Nodes(stmt, xmlutils.XPathEntry)
		if err != nil {
			return nil, err
		}
		for i, entry := range entries {
			if status := xmlutils.First(entry, xmlutils.XPathStatus+"/Cd", xmlutils.XPathStatus); status == "PDNG" {
				continue
			}

			rawAmount := xmlutils.First(entry, xmlutils.XPathAmount)
			amount, err := decimal.NewFromString(rawAmount)
			if err != nil {
				return nil, &ingesterror.MalformedInputError{Field: "Amt", Value: rawAmount, Reason: fmt.Sprintf("entry %d: invalid amount", i+1)}
			}

			events = append(events, models.IngestEvent{
				ExternalID: xmlutils.First(entry,
					xmlutils.XPathAccountSvcRef, xmlutils.XPathEntryRef, xmlutils.XPathTransactionID, xmlutils.XPathEndToEndID),
				Amount: amount,
				Description: xmlutils.First(entry,
					xmlutils.XPathRemittanceInfo, xmlutils.XPathAddTxInfo, xmlutils.XPathAddEntryInfo,
					xmlutils.XPathCreditorName, xmlutils.XPathDebtorName),
				Date:                 xmlutils.First(entry, xmlutils.XPathBookingDate, xmlutils.XPathBookingDateTm, xmlutils.XPathValueDate),
				AccountRef:           account,
				CreditDebitIndicator: xmlutils.First(entry, xmlutils.XPathCreditDebitInd),
				OrganizationID:       orgID,
			})
		}
	}

	c.logger.Debug("Extracted entries from CAMT statement", logging.Field{Key: logging.FieldCount, Value: len(events)})
	return events, nil
}
