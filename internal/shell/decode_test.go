package shell

import "testing"

func TestChunkDecoder(t *testing.T) {
	euro := []byte("€") // e2 82 ac

	tests := []struct {
		name   string
		chunks [][]byte
		want   string
	}{
		{"ascii", [][]byte{[]byte("hello"), []byte(" world")}, "hello world"},
		{"split rune", [][]byte{append([]byte("a"), euro[:1]...), euro[1:]}, "a€"},
		{"split three ways", [][]byte{euro[:1], euro[1:2], append(euro[2:], 'b')}, "€b"},
		{"invalid dropped", [][]byte{[]byte("x\xffy")}, "xy"},
		{"incomplete tail dropped on flush", [][]byte{append([]byte("z"), euro[:2]...)}, "z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d chunkDecoder
			var got string
			for _, c := range tt.chunks {
				got += d.decode(c)
			}
			got += d.flush()
			if got != tt.want {
				t.Errorf("decoded %q, want %q", got, tt.want)
			}
		})
	}
}
