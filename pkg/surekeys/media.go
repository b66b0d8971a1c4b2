package surekeys

import (
	"bytes"
	"context"
	"fmt"
)

// UploadImage POST /media/upload，multipart 字段名为 image
func (c *Client) UploadImage(ctx context.Context, file UploadFile, token string) (*UploadResult, error) {
	var res uploadResp
	req := c.request(ctx, token).SetResult(&res)

	if file.ContentType != "" {
		req.SetMultipartField("image", file.Name, file.ContentType, bytes.NewReader(file.Data))
	} else {
		req.SetFileReader("image", file.Name, bytes.NewReader(file.Data))
	}

	resp, err := req.Post("/media/upload")
	if err := check(resp, err); err != nil {
		return nil, err
	}

	if res.Data == nil || res.Data.URL == "" || res.Data.PublicID == "" {
		return nil, fmt.Errorf("%w: 上传结果缺少 url 或 public_id", ErrUnexpectedResponse)
	}
	return res.Data, nil
}
