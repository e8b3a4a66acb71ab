package texd

import (
	"path/filepath"
	"testing"
)

func TestResolveOutputPaths(t *testing.T) {
	tests := []struct {
		name    string
		srcPath string
		outDir  string
		want    OutputPaths
		wantErr bool
	}{
		{
			name:    "simple",
			srcPath: "paper.d.tex",
			want:    OutputPaths{Tex: "paper.tex", PDF: "paper.pdf"},
		},
		{
			name:    "with_path",
			srcPath: "/home/user/notes/paper.d.tex",
			want:    OutputPaths{Tex: "/home/user/notes/paper.tex", PDF: "/home/user/notes/paper.pdf"},
		},
		{
			name:    "relative_out_dir",
			srcPath: "/home/user/notes/paper.d.tex",
			outDir:  "build",
			want:    OutputPaths{Tex: "/home/user/notes/build/paper.tex", PDF: "/home/user/notes/build/paper.pdf"},
		},
		{
			name:    "absolute_out_dir",
			srcPath: "notes/paper.d.tex",
			outDir:  "/tmp/out",
			want:    OutputPaths{Tex: "/tmp/out/paper.tex", PDF: "/tmp/out/paper.pdf"},
		},
		{
			name:    "dotted_stem",
			srcPath: "v1.2.d.tex",
			want:    OutputPaths{Tex: "v1.2.tex", PDF: "v1.2.pdf"},
		},
		{
			name:    "plain_tex_is_rejected",
			srcPath: "paper.tex",
			wantErr: true,
		},
		{
			name:    "bare_extension_is_rejected",
			srcPath: "dir/.d.tex",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveOutputPaths(tt.srcPath, tt.outDir)
			if (err != nil) != tt.wantErr {
				t.Errorf("ResolveOutputPaths() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}

			// Use filepath.Clean to normalize paths for comparison
			if filepath.Clean(got.Tex) != filepath.Clean(tt.want.Tex) {
				t.Errorf("ResolveOutputPaths().Tex = %v, want %v", got.Tex, tt.want.Tex)
			}
			if filepath.Clean(got.PDF) != filepath.Clean(tt.want.PDF) {
				t.Errorf("ResolveOutputPaths().PDF = %v, want %v", got.PDF, tt.want.PDF)
			}
		})
	}
}
