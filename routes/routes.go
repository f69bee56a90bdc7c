// Package routes đăng ký toàn bộ HTTP routes của Address Matcher Service.
//
// Cấu trúc:
// - api.go: API routes (/v1/*), health routes và middleware
// - web.go: Web routes (/, /docs)
//
// Sử dụng:
// routes.SetupAllRoutes(router, addressController, adminController, logger)
package routes
