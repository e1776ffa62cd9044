package rest

import (
	"context"
)

const (
	CodeSuccess int = 2000
)

var (
	successMeta = Meta{
		Code:    CodeSuccess,
		Message: "OK",
	}
)

type Meta struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type Response struct {
	Meta Meta        `json:"meta"`
	Data interface{} `json:"data"`
}

type ListData struct {
	Rows       interface{} `json:"rows"`
	TotalCount int         `json:"total_count"`
}

func newResponse(_ context.Context, meta Meta, data interface{}) Response {
	return Response{
		Meta: meta,
		Data: data,
	}
}

func SuccessResp(ctx context.Context, data interface{}) Response {
	return newResponse(ctx, successMeta, data)
}

func ErrorResp(ctx context.Context, code int, errMsg string, data interface{}) Response {
	meta := Meta{
		Code:    code,
		Message: errMsg,
	}
	return newResponse(ctx, meta, data)
}

func NewListData(rows interface{}, totalCount int) ListData {
	return ListData{
		Rows:       rows,
		TotalCount: totalCount,
	}
}
