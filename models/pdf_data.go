package models

// GivingStatementData feeds the annual giving statement template.
type GivingStatementData struct {
	Year        int
	DonorName   string
	DonorEmail  string
	ChurchName  string
	GeneratedOn string
	Lines       []StatementLine
	TotalCents  int64
	Total       string
	TotalWords  string
}

type StatementLine struct {
	Date   string
	Church string
	Amount string
	Ref    string
}
