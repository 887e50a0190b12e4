package feature_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/KyungWonPark/TractFeature/internal/config"
	"github.com/KyungWonPark/TractFeature/internal/feature"
	"github.com/KyungWonPark/TractFeature/internal/io"
)

var metrics = []string{"fa", "md", "ad", "rd"}

// value is the fixture sample for metric m, bundle b, row r.
func value(m, b, r int) float64 {
	return float64(100*(m+1)+10*b+r) / 1000
}

// writeProfiles writes one table per metric with the given header; column i
// of the header holds bundle index bundleOf[i].
func writeProfiles(t *testing.T, dir string, header []string, bundleOf []int, rows int) {
	t.Helper()
	for m, metric := range metrics {
		var sb strings.Builder
		sb.WriteString("#" + strings.Join(header, ";") + "\n")
		for r := 0; r < rows; r++ {
			fields := make([]string, len(header))
			for i := range header {
				fields[i] = fmt.Sprintf("%g", value(m, bundleOf[i], r))
			}
			sb.WriteString(strings.Join(fields, ";") + "\n")
		}
		path := filepath.Join(dir, metric+"_profiles.csv")
		require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
	}
}

type AssemblerSuite struct {
	suite.Suite
	ctx context.Context
	dir string
	cat *config.Catalog
}

func (s *AssemblerSuite) SetupTest() {
	s.ctx = context.Background()
	s.dir = s.T().TempDir()
	s.cat = config.Default()
	s.cat.Bundles = []string{"CG_right", "CG_left"}
}

func (s *AssemblerSuite) assembler() *feature.Assembler {
	a, err := feature.New(s.cat)
	require.NoError(s.T(), err)
	return a
}

// TestReducedCatalog: 2 bundles x 3 rows x 4 metrics gives 24 raw values
// in metric-major, sorted-bundle order followed by 104 zeros.
func (s *AssemblerSuite) TestReducedCatalog() {
	// Header order and an extra column must not affect extraction.
	writeProfiles(s.T(), s.dir, []string{"UF_left", "CG_right", "CG_left"}, []int{9, 1, 0}, 3)

	vec, err := s.assembler().Assemble(s.ctx, s.dir)
	require.NoError(s.T(), err)
	require.Len(s.T(), vec, 128)

	var want []float64
	for m := range metrics {
		for b := 0; b < 2; b++ { // CG_left, CG_right
			for r := 0; r < 3; r++ {
				want = append(want, value(m, b, r))
			}
		}
	}
	require.Equal(s.T(), want, vec[:24])
	require.Equal(s.T(), make([]float64, 104), vec[24:])
}

func (s *AssemblerSuite) TestTruncation() {
	writeProfiles(s.T(), s.dir, []string{"CG_left", "CG_right"}, []int{0, 1}, 20)
	a := s.assembler()

	raw, err := a.Raw(s.ctx, s.dir)
	require.NoError(s.T(), err)
	require.Len(s.T(), raw, 160)

	vec, err := a.Assemble(s.ctx, s.dir)
	require.NoError(s.T(), err)
	require.Equal(s.T(), raw[:128], vec)
}

// TestDeclarationOrderIrrelevant: reordering the catalog never changes output.
func (s *AssemblerSuite) TestDeclarationOrderIrrelevant() {
	writeProfiles(s.T(), s.dir, []string{"CG_left", "CG_right"}, []int{0, 1}, 4)

	first, err := s.assembler().Assemble(s.ctx, s.dir)
	require.NoError(s.T(), err)

	s.cat.Bundles = []string{"CG_left", "CG_right", "CG_left"}
	second, err := s.assembler().Assemble(s.ctx, s.dir)
	require.NoError(s.T(), err)
	require.Equal(s.T(), first, second)
	require.Equal(s.T(), []string{"CG_left", "CG_right"}, s.assembler().Bundles())
}

func (s *AssemblerSuite) TestMissingBundle() {
	writeProfiles(s.T(), s.dir, []string{"CG_left", "UF_left"}, []int{0, 1}, 3)
	out := filepath.Join(s.dir, "out.json")

	err := s.assembler().Run(s.ctx, s.dir, out)
	require.ErrorIs(s.T(), err, io.ErrBundleNotFound)
	require.Contains(s.T(), err.Error(), "CG_right")

	_, statErr := os.Stat(out)
	require.True(s.T(), os.IsNotExist(statErr), "no output on failure")
}

func (s *AssemblerSuite) TestMissingMetricFile() {
	writeProfiles(s.T(), s.dir, []string{"CG_left", "CG_right"}, []int{0, 1}, 3)
	require.NoError(s.T(), os.Remove(filepath.Join(s.dir, "ad_profiles.csv")))

	_, err := s.assembler().Assemble(s.ctx, s.dir)
	require.ErrorIs(s.T(), err, io.ErrFileNotFound)
	require.Contains(s.T(), err.Error(), "metric ad")
}

// TestFirstFailingMetricReported: failures surface in metric order.
func (s *AssemblerSuite) TestFirstFailingMetricReported() {
	writeProfiles(s.T(), s.dir, []string{"CG_left", "CG_right"}, []int{0, 1}, 3)
	require.NoError(s.T(), os.Remove(filepath.Join(s.dir, "rd_profiles.csv")))
	require.NoError(s.T(), os.WriteFile(filepath.Join(s.dir, "md_profiles.csv"), []byte("#CG_left;CG_right\n1;oops\n"), 0o644))

	_, err := s.assembler().Assemble(s.ctx, s.dir)
	require.ErrorIs(s.T(), err, io.ErrParse)
	require.Contains(s.T(), err.Error(), "metric md")
}

// TestAllMetricsMissing: with every load failing, the reported metric is
// the first in order regardless of worker count.
func (s *AssemblerSuite) TestAllMetricsMissing() {
	for _, workers := range []int{1, 4} {
		s.cat.Workers = workers
		_, err := s.assembler().Assemble(s.ctx, s.dir)
		require.ErrorIs(s.T(), err, io.ErrFileNotFound)
		require.Contains(s.T(), err.Error(), "metric fa:", "workers=%d", workers)
	}
}

// TestAnnotatedProfiles: comment and blank lines in the tables are ignored.
func (s *AssemblerSuite) TestAnnotatedProfiles() {
	for _, metric := range metrics {
		content := "#CG_left;CG_right\n# along-tract samples\n1;2 # node 0\n\n  \n3;4\n"
		require.NoError(s.T(), os.WriteFile(filepath.Join(s.dir, metric+"_profiles.csv"), []byte(content), 0o644))
	}

	raw, err := s.assembler().Raw(s.ctx, s.dir)
	require.NoError(s.T(), err)
	require.Equal(s.T(), []float64{1, 3, 2, 4, 1, 3, 2, 4, 1, 3, 2, 4, 1, 3, 2, 4}, raw)
}

func (s *AssemblerSuite) TestRunWritesJSON() {
	writeProfiles(s.T(), s.dir, []string{"CG_left", "CG_right"}, []int{0, 1}, 3)
	out := filepath.Join(s.dir, "features.json")

	require.NoError(s.T(), s.assembler().Run(s.ctx, s.dir, out))

	got, err := io.ReadVectorJSON(out)
	require.NoError(s.T(), err)
	require.Len(s.T(), got, 128)
	require.Equal(s.T(), value(0, 0, 0), got[0])
}

func (s *AssemblerSuite) TestRunUnwritable() {
	writeProfiles(s.T(), s.dir, []string{"CG_left", "CG_right"}, []int{0, 1}, 3)

	err := s.assembler().Run(s.ctx, s.dir, filepath.Join(s.dir, "no", "such", "out.json"))
	require.ErrorIs(s.T(), err, io.ErrIO)
}

func (s *AssemblerSuite) TestCanceled() {
	writeProfiles(s.T(), s.dir, []string{"CG_left", "CG_right"}, []int{0, 1}, 3)
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.assembler().Assemble(ctx, s.dir)
	require.ErrorIs(s.T(), err, context.Canceled)
}

func (s *AssemblerSuite) TestCustomLength() {
	writeProfiles(s.T(), s.dir, []string{"CG_left", "CG_right"}, []int{0, 1}, 3)
	s.cat.Length = 10

	vec, err := s.assembler().Assemble(s.ctx, s.dir)
	require.NoError(s.T(), err)
	require.Len(s.T(), vec, 10)
}

func (s *AssemblerSuite) TestInvalidCatalog() {
	s.cat.Length = 0
	_, err := feature.New(s.cat)
	require.ErrorIs(s.T(), err, config.ErrInvalidConfig)
}

func TestAssemblerSuite(t *testing.T) {
	suite.Run(t, new(AssemblerSuite))
}

// TestDefaultCatalog: the full six-bundle catalog always yields 128 values.
func TestDefaultCatalog(t *testing.T) {
	dir := t.TempDir()
	header := append([]string(nil), config.DefaultBundles...)
	bundleOf := []int{0, 1, 2, 3, 4, 5}
	writeProfiles(t, dir, header, bundleOf, 2)

	a, err := feature.New(nil)
	require.NoError(t, err)

	vec, err := a.Assemble(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, vec, 128)
	require.Equal(t, value(3, 5, 1), vec[47])
	require.Zero(t, vec[48])
}
