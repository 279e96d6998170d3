package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Location
		wantErr bool
	}{
		{name: "s3 object", input: "s3://amazoncore75/enriched/abc.csv", want: Location{Scheme: "s3", Bucket: "amazoncore75", Key: "enriched/abc.csv"}},
		{name: "s3 prefix", input: "s3://bucket/enriched/", want: Location{Scheme: "s3", Bucket: "bucket", Key: "enriched/"}},
		{name: "bucket only", input: "gs://bucket", want: Location{Scheme: "gs", Bucket: "bucket", Key: ""}},
		{name: "azure", input: "az://container/a/b.csv", want: Location{Scheme: "az", Bucket: "container", Key: "a/b.csv"}},
		{name: "memory", input: "mem://results/x.csv", want: Location{Scheme: "mem", Bucket: "results", Key: "x.csv"}},
		{name: "wrong scheme", input: "https://bucket/key", wantErr: true},
		{name: "no scheme", input: "bucket/key", wantErr: true},
		{name: "no bucket", input: "s3:///key", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLocation(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseObjectLocation_RequiresKey(t *testing.T) {
	_, err := ParseObjectLocation("s3://bucket/")
	require.Error(t, err)

	_, err = ParseObjectLocation("s3://bucket/prefix/")
	require.Error(t, err)

	loc, err := ParseObjectLocation("s3://bucket/prefix/file.csv")
	require.NoError(t, err)
	assert.Equal(t, "prefix/file.csv", loc.Key)
}

func TestLocation_Join(t *testing.T) {
	base := Location{Scheme: "s3", Bucket: "b", Key: "enriched"}
	assert.Equal(t, "s3://b/enriched/job.csv", base.Join("job.csv").String())

	base.Key = "enriched/"
	assert.Equal(t, "s3://b/enriched/job.csv", base.Join("/job.csv").String())

	base.Key = ""
	assert.Equal(t, "s3://b/job.csv", base.Join("job.csv").String())
}
