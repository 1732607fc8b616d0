package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/filedeck/internal/domain/tree"
	"github.com/GriffinCanCode/filedeck/internal/shared/types"
)

func TestParamsFromRequest(t *testing.T) {
	home, nested := "", "1/7"

	tests := []struct {
		name    string
		req     types.ActionRequest
		want    tree.Path
		wantErr error
	}{
		{name: "move without dest", req: types.ActionRequest{Action: "move-to", ID: 2}, wantErr: ErrMissingDest},
		{name: "move home", req: types.ActionRequest{Action: "move-to", ID: 2, Dest: &home}},
		{name: "move nested", req: types.ActionRequest{Action: "move-to", ID: 2, Dest: &nested}, want: tree.Path{1, 7}},
		{name: "rename ignores dest", req: types.ActionRequest{Action: "rename", ID: 2, Name: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParamsFromRequest(tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tree.ID(2), p.ID)
			assert.Equal(t, len(tt.want), len(p.Dest))
			if len(tt.want) > 0 {
				assert.Equal(t, tt.want, p.Dest)
			}
		})
	}

	bad := "x/y"
	_, err := ParamsFromRequest(types.ActionRequest{Action: "move-to", Dest: &bad})
	assert.Error(t, err)
}
