package codes

import (
	"fmt"
	"regexp"
	"testing"
	"time"

	"export-tracking-service/tracking/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBatchCode(t *testing.T) {
	now := time.UnixMilli(1736940123456).UTC()

	code := GenerateBatchCode(now)

	assert.Equal(t, "LOTE-2025-123456", code)
	assert.Regexp(t, regexp.MustCompile(`^LOTE-\d{4}-\d{6}$`), code)
}

func TestGenerateBatchCode_ShortMillis(t *testing.T) {
	now := time.UnixMilli(4321).UTC()

	assert.Equal(t, "LOTE-1970-4321", GenerateBatchCode(now))
}

func TestGenerateBatchCode_DistinctMillis(t *testing.T) {
	base := time.UnixMilli(1736940123456)

	assert.NotEqual(t, GenerateBatchCode(base), GenerateBatchCode(base.Add(time.Millisecond)))
}

func TestGenerateSubCodes(t *testing.T) {
	producers := []models.Producer{
		{ID: "p1", Name: "Fazenda Kilamba"},
		{ID: "p2", Name: "Cooperativa Uíge"},
		{ID: "p3", Name: "Roça Cuanza"},
	}

	got := GenerateSubCodes("LOTE-2025-123456", producers)

	require.Len(t, got, 3)
	assert.Equal(t, "123456-A", got[0].SubCode)
	assert.Equal(t, "123456-B", got[1].SubCode)
	assert.Equal(t, "123456-C", got[2].SubCode)
	assert.Equal(t, "Cooperativa Uíge", got[1].Name)
}

func TestGenerateSubCodes_AlphabetLetters(t *testing.T) {
	producers := make([]models.Producer, MaxProducersPerBatch)
	for i := range producers {
		producers[i] = models.Producer{ID: fmt.Sprintf("p%d", i)}
	}

	got := GenerateSubCodes("LOTE-2025-000042", producers)

	for i, bp := range got {
		want := string(rune('A' + i))
		assert.Equal(t, "000042-"+want, bp.SubCode)
	}
	assert.Equal(t, "000042-Z", got[25].SubCode)
}

func TestGenerateSubCodes_Empty(t *testing.T) {
	assert.Empty(t, GenerateSubCodes("LOTE-2025-123456", nil))
}

func TestSuffix(t *testing.T) {
	assert.Equal(t, "123456", Suffix("LOTE-2025-123456"))
	assert.Equal(t, "", Suffix("LOTE2025"))
}
