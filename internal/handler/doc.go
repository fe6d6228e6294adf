// Package handler 按业务划分子包存放 HTTP Handler：
// course（客户与课程）、padding（刷单）、opcost（运营成本）、
// staff（员工与提成配置）、setting（业务配置）、finance（报表、分红与提成）。
//
// 生成接口文档：swag init -g cmd/api-gateway/main.go --dir ./,./internal/handler
package handler
