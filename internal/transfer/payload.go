package transfer

import (
	"encoding/hex"
	"os"

	"golang.org/x/crypto/blake2b"
)

// Payload 待发送的文件内容，加载后不再修改
type Payload struct {
	Path   string
	data   []byte
	digest [blake2b.Size256]byte
}

// LoadPayload 一次性读取整个文件
func LoadPayload(path string) (*Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return &Payload{
		Path:   path,
		data:   data,
		digest: blake2b.Sum256(data),
	}, nil
}

// Len 字节数
func (p *Payload) Len() int {
	return len(p.data)
}

// Digest BLAKE2b-256 摘要（仅用于日志，不上线路）
func (p *Payload) Digest() string {
	return hex.EncodeToString(p.digest[:])
}
