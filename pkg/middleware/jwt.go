package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// OperatorClaims はキャンペーンAPIを呼び出す運用者トークンのクレーム。
type OperatorClaims struct {
	jwt.RegisteredClaims
	// OperatorID はキャンペーンを操作する運用者の一意識別子。
	OperatorID string `json:"operator_id"`
}

// tokenIssuer は運用者トークンの発行者名。
const tokenIssuer = "bulknotify-campaign"

// GenerateOperatorToken は運用者IDからJWTトークンを生成する。
// 有効期限は発行から12時間。
func GenerateOperatorToken(secret, operatorID string) (string, error) {
	claims := OperatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(12 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    tokenIssuer,
		},
		OperatorID: operatorID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("JWTトークンの署名に失敗: %w", err)
	}
	return signed, nil
}

// JWTAuth は運用者トークンを検証するGinミドルウェアを返す。
// 検証に成功した場合、コンテキストに "operator_id" を設定する。
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorizationヘッダーが必要です",
			})
			return
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Bearer トークン形式が不正です",
			})
			return
		}

		claims := &OperatorClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "トークンが無効です",
			})
			return
		}

		c.Set("operator_id", claims.OperatorID)
		c.Next()
	}
}

// GetOperatorID はGinコンテキストから運用者IDを取得する。
// JWTAuthミドルウェアが事前に適用されている必要がある。
func GetOperatorID(c *gin.Context) string {
	operatorID, _ := c.Get("operator_id")
	if id, ok := operatorID.(string); ok {
		return id
	}
	return ""
}
