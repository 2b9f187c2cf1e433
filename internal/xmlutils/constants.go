// Package xmlutils provides XPath helpers for reading bank statement XML.
package xmlutils

// CAMT.053 paths. Statement and entry paths are absolute; the others are
// relative to an entry (Ntry) node.
const (
	XPathStatement    = "//BkToCstmrStmt/Stmt"
	XPathEntry        = "Ntry"
	XPathAccountIBAN  = "Acct/Id/IBAN"
	XPathAccountOther = "Acct/Id/Othr/Id"

	XPathAmount         = "Amt"
	XPathCreditDebitInd = "CdtDbtInd"
	XPathStatus         = "Sts"
	XPathBookingDate    = "BookgDt/Dt"
	XPathBookingDateTm  = "BookgDt/DtTm"
	XPathValueDate      = "ValDt/Dt"

	XPathAccountSvcRef = "AcctSvcrRef"
	XPathEntryRef      = "NtryRef"
	XPathEndToEndID    = "NtryDtls/TxDtls/Refs/EndToEndId"
	XPathTransactionID = "NtryDtls/TxDtls/Refs/TxId"

	XPathRemittanceInfo = "NtryDtls/TxDtls/RmtInf/Ustrd"
	XPathAddTxInfo      = "NtryDtls/TxDtls/AddtlTxInf"
	XPathAddEntryInfo   = "AddtlNtryInf"
	XPathCreditorName   = "NtryDtls/TxDtls/RltdPties/Cdtr/Nm"
	XPathDebtorName     = "NtryDtls/TxDtls/RltdPties/Dbtr/Nm"
)
