package utils

import (
	"crypto/md5"
	"encoding/hex"
)

// StringPtr 返回字符串的指针
func StringPtr(s string) *string {
	return &s
}

// CalculateMD5 计算字节切片的MD5十六进制摘要
func CalculateMD5(data []byte) string {
	hasher := md5.New()
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}
