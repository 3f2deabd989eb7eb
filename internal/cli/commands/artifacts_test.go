package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paleoml/paleo/pkg/metadata"
)

func TestParsePropertySelector(t *testing.T) {
	tests := []struct {
		name     string
		selector string
		wantName string
		wantVal  metadata.PropertyValue
	}{
		{
			name:     "plain string",
			selector: "owner=alice",
			wantName: "owner",
			wantVal:  metadata.StringValue("alice"),
		},
		{
			name:     "explicit string kind",
			selector: "owner=alice:string",
			wantName: "owner",
			wantVal:  metadata.StringValue("alice"),
		},
		{
			name:     "int kind",
			selector: "epoch=5:int",
			wantName: "epoch",
			wantVal:  metadata.IntValue(5),
		},
		{
			name:     "double kind",
			selector: "accuracy=0.93:double",
			wantName: "accuracy",
			wantVal:  metadata.DoubleValue(0.93),
		},
		{
			name:     "bool kind",
			selector: "finalized=true:bool",
			wantName: "finalized",
			wantVal:  metadata.BoolValue(true),
		},
		{
			name:     "uri value keeps scheme colon",
			selector: "path=s3://bucket/data",
			wantName: "path",
			wantVal:  metadata.StringValue("s3://bucket/data"),
		},
		{
			name:     "colon value without kind suffix",
			selector: "window=09:30",
			wantName: "window",
			wantVal:  metadata.StringValue("09:30"),
		},
		{
			name:     "uri value with explicit kind",
			selector: "path=s3://bucket/data:string",
			wantName: "path",
			wantVal:  metadata.StringValue("s3://bucket/data"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, val, err := parsePropertySelector(tt.selector)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantVal, val)
		})
	}
}

func TestParsePropertySelector_Errors(t *testing.T) {
	tests := []struct {
		name     string
		selector string
	}{
		{name: "missing equals", selector: "owner"},
		{name: "empty name", selector: "=alice"},
		{name: "bad int literal", selector: "epoch=five:int"},
		{name: "bad bool literal", selector: "finalized=yep:bool"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parsePropertySelector(tt.selector)
			require.Error(t, err)
		})
	}
}
