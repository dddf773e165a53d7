package auth

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nao1215/authgate/pkg/event"
)

// defaultPublishTimeout はイベント送信1回あたりのタイムアウト。
const defaultPublishTimeout = 2 * time.Second

// TokenIssuer はIdentityに対してトークンを発行する。
type TokenIssuer interface {
	Issue(subject, role string) (string, error)
}

// RegistrationFlow はユーザー登録の一連の処理を組み立てる。
// 一意性確認、ハッシュ化、保存、トークン発行、user.registeredイベント送信の順に実行する。
type RegistrationFlow struct {
	gate           *CredentialGate
	issuer         TokenIssuer
	publisher      event.Publisher
	publishTimeout time.Duration
}

// NewRegistrationFlow は新しいRegistrationFlowを生成する。
func NewRegistrationFlow(gate *CredentialGate, issuer TokenIssuer, publisher event.Publisher) *RegistrationFlow {
	return &RegistrationFlow{
		gate:           gate,
		issuer:         issuer,
		publisher:      publisher,
		publishTimeout: defaultPublishTimeout,
	}
}

// Register はユーザーを登録し、発行したトークンと保存したIdentityを返す。
// トークンは保存に成功した場合のみ発行する。
// イベント送信の失敗はログに記録するだけで、呼び出し元にはエラーを返さない。
func (f *RegistrationFlow) Register(ctx context.Context, email, password, role string) (string, Identity, error) {
	identity, err := f.gate.Register(ctx, email, password, role)
	if err != nil {
		return "", Identity{}, err
	}
	log.Printf("[Auth] ユーザーを保存しました: id=%s", identity.ID)

	token, err := f.issuer.Issue(identity.Email, identity.Role)
	if err != nil {
		return "", Identity{}, fmt.Errorf("トークンの発行に失敗: %w", err)
	}

	f.publishRegistered(ctx, identity)
	return token, identity, nil
}

// publishRegistered はuser.registeredイベントを1回だけ送信する。
// クライアントの切断で送信が中断されないよう、リクエストのキャンセルからは切り離す。
func (f *RegistrationFlow) publishRegistered(ctx context.Context, identity Identity) {
	ev, err := event.NewUserRegistered(event.UserRegisteredData{
		ID:    identity.ID,
		Email: identity.Email,
		Role:  identity.Role,
	})
	if err != nil {
		log.Printf("[Auth] user.registeredイベントの生成に失敗: id=%s, error=%v", identity.ID, err)
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.publishTimeout)
	defer cancel()

	if err := f.publisher.Publish(pubCtx, ev); err != nil {
		log.Printf("[Auth] user.registeredイベントの送信に失敗: id=%s, error=%v", identity.ID, err)
		return
	}
	log.Printf("[Auth] user.registeredイベントを送信しました: id=%s, version=%d", identity.ID, ev.Version)
}
