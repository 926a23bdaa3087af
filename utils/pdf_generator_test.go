package utils

import (
	"testing"

	"dailybread/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderStatementHTML(t *testing.T) {
	data := &models.GivingStatementData{
		Year:        2026,
		DonorName:   "Ana <Lopez>",
		DonorEmail:  "ana@example.com",
		ChurchName:  "Grace Chapel",
		GeneratedOn: "January 5, 2027",
		Lines: []models.StatementLine{
			{Date: "Mar 3, 2026", Church: "Grace Chapel", Amount: "$7.12", Ref: "ch_1"},
			{Date: "Apr 9, 2026", Church: "Grace Chapel", Amount: "$10.40", Ref: "ch_2"},
		},
		TotalCents: 1752,
		Total:      FormatCents(1752),
		TotalWords: CentsToWords(1752),
	}

	html, err := RenderStatementHTML(data)
	require.NoError(t, err)
	out := string(html)

	assert.Contains(t, out, "2026")
	assert.Contains(t, out, "Grace Chapel")
	assert.Contains(t, out, "ch_2")
	assert.Contains(t, out, "$17.52")
	assert.Contains(t, out, "Seventeen Dollars and Fifty Two Cents")
	// html/template escapes user-provided names.
	assert.Contains(t, out, "Ana &lt;Lopez&gt;")
}
