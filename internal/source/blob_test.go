package source

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePager struct {
	pages [][]string
	err   error
	calls int
}

func (f *fakePager) More() bool {
	return f.calls < len(f.pages) || (f.err != nil && f.calls == len(f.pages))
}

func (f *fakePager) NextPage(context.Context) ([]string, error) {
	defer func() { f.calls++ }()
	if f.calls == len(f.pages) {
		return nil, f.err
	}
	return f.pages[f.calls], nil
}

func listerWith(p *fakePager) *BlobLister {
	return &BlobLister{container: ContainerName, newPager: func() blobPager { return p }}
}

func TestBlobLister_Names(t *testing.T) {
	l := listerWith(&fakePager{pages: [][]string{
		{"Geopackage_2021_G01_AUST_GDA2020.zip", "Geopackage_2021_G02_AUST_GDA2020.zip"},
		{"Geopackage_2016_G01_AUST_GDA94.zip"},
	}})

	names, err := l.Names(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Geopackage_2021_G01_AUST_GDA2020.zip",
		"Geopackage_2021_G02_AUST_GDA2020.zip",
		"Geopackage_2016_G01_AUST_GDA94.zip",
	}, names)
	assert.Equal(t, "australian-census-data", l.Container())
}

func TestBlobLister_Empty(t *testing.T) {
	names, err := listerWith(&fakePager{}).Names(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestBlobLister_TransportError(t *testing.T) {
	l := listerWith(&fakePager{
		pages: [][]string{{"a"}},
		err:   errors.New("dial tcp: connection refused"),
	})

	names, err := l.Names(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"a"}, names)

	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, ce.Error(), "connection refused")
}

func TestBlobLister_StopsEarly(t *testing.T) {
	p := &fakePager{pages: [][]string{{"a", "b"}, {"c"}}}
	l := listerWith(p)

	var got []string
	for name, err := range l.List(context.Background()) {
		require.NoError(t, err)
		got = append(got, name)
		if len(got) == 1 {
			break
		}
	}
	assert.Equal(t, []string{"a"}, got)
	assert.Equal(t, 1, p.calls)
}

func TestNewBlobLister_BadCredential(t *testing.T) {
	_, err := NewBlobLister("not-a-connection-string")
	require.Error(t, err)

	var ce *ConnectionError
	assert.ErrorAs(t, err, &ce)
}
