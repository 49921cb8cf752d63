package internal

import "testing"

// FuzzDecodeUID feeds arbitrary link segments to the decoder. Bad input must
// produce ErrInvalidUID, never a panic.
func FuzzDecodeUID(f *testing.F) {
	f.Add("")
	f.Add("abc")
	f.Add("NDI=")
	f.Add(EncodeUID("6f1c1d8e-3b7a-4d7e-9a43-2b1a3c0e7f11"))
	f.Add("!!!not-base64!!!")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := DecodeUID(input)
		if err != nil {
			return
		}
		if id == "" {
			t.Fatal("DecodeUID accepted input but returned an empty id")
		}
	})
}
