package main

// General API documentation for swaggo. Regenerate internal/docs with
// `swag init -g cmd/bedrockgw/docs.go -o internal/docs`.
//
// @title           Bedrock Gateway API
// @version         1.0
// @description     Bearer-token gateway relaying Anthropic chat payloads to AWS Bedrock.
//
// @BasePath  /
//
// @securityDefinitions.basic  basicAuth
//
// @securityDefinitions.apikey  bearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the token returned by /login.
