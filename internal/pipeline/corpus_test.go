package pipeline

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/crowdgen/internal/model"
)

func TestWriteCSV_QuotesEveryField(t *testing.T) {
	samples := []model.Sample{
		{Input: `14:05 현재 "A구역" 71명, 기준 50명`, Output: "통제하십시오.", Domain: "군중"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, samples))

	want := "\"Input\",\"Output\",\"Domain\"\r\n" +
		"\"14:05 현재 \"\"A구역\"\" 71명, 기준 50명\",\"통제하십시오.\",\"군중\"\r\n"
	assert.Equal(t, want, buf.String())
}

func TestCSV_RoundTrip(t *testing.T) {
	samples := []model.Sample{
		{Input: "쉼표, 그리고 \"따옴표\"", Output: "첫 문장입니다. 둘째 문장입니다.", Domain: "군중 밀집 및 체류 감지"},
		{Input: "줄\n바꿈", Output: "확인하십시오.", Domain: "이상 이동 패턴 감지"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, samples))
	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, samples, got)
}

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int
		wantErr error
	}{
		{"plain", "Input,Output,Domain\na,b,c\n", 1, nil},
		{"bom", "\ufeff\"Input\",\"Output\",\"Domain\"\r\n\"a\",\"b\",\"c\"\r\n", 1, nil},
		{"header only", "Input,Output,Domain\n", 0, nil},
		{"bad header", "input,output,label\na,b,c\n", 0, ErrBadHeader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadCSV(strings.NewReader(tt.in))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}

func TestReadCSV_Malformed(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("Input,Output,Domain\na,b\n"))
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestWriteFile_ReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "crowd.csv")
	samples := []model.Sample{{Input: "입력", Output: "출력.", Domain: "군중"}}

	require.NoError(t, WriteFile(path, samples))
	_, err := os.Stat(path)
	require.NoError(t, err)

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, samples, got)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	results := []*DomainResult{
		{Results: []model.Result{{Sample: model.Sample{Input: "a"}}, {Sample: model.Sample{Input: "b"}}}},
		{Results: []model.Result{{Sample: model.Sample{Input: "c"}}}},
	}

	merged := Merge(results)
	require.Len(t, merged, 3)
	assert.Equal(t, "a", merged[0].Input)
	assert.Equal(t, "c", merged[2].Input)
	assert.Empty(t, Merge(nil))
}
