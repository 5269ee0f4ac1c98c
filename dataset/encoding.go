package dataset

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding names accepted by LoadOptions.
const (
	EncodingUTF8        = "utf-8"
	EncodingUTF8BOM     = "utf-8-sig"
	EncodingLatin1      = "latin1"
	EncodingWindows1252 = "windows-1252"
	EncodingGBK         = "gbk"
)

// decoderFor 返回字符集解码器；utf-8 同样剥离BOM
func decoderFor(name string) (transform.Transformer, error) {
	var enc encoding.Encoding
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", EncodingUTF8, "utf8":
		return unicode.BOMOverride(unicode.UTF8.NewDecoder()), nil
	case EncodingUTF8BOM:
		enc = unicode.UTF8BOM
	case EncodingLatin1, "iso-8859-1":
		enc = charmap.ISO8859_1
	case EncodingWindows1252, "cp1252":
		enc = charmap.Windows1252
	case EncodingGBK:
		enc = simplifiedchinese.GBK
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return enc.NewDecoder(), nil
}
