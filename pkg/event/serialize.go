package event

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedEvent はペイロードをOutcomeイベントにデコードできない
// 場合のエラー。ローカルでは回復不能であり、呼び出し元に伝播して
// メッセージ基盤のリトライ・デッドレター方針に委ねる。
var ErrMalformedEvent = errors.New("イベントペイロードの形式が不正")

// DecodeOutcome はメッセージ基盤から受信した生ペイロードをOutcomeイベントに
// デコードし、必須フィールドを検証する。副作用は持たない。
// デコードまたは検証に失敗した場合はErrMalformedEventをラップしたエラーを返す。
func DecodeOutcome(payload []byte) (*Outcome, error) {
	var o Outcome
	if err := json.Unmarshal(payload, &o); err != nil {
		return nil, fmt.Errorf("%w: JSONのデコードに失敗: %v", ErrMalformedEvent, err)
	}

	if o.NotificationID == "" {
		return nil, fmt.Errorf("%w: notification_idが空です", ErrMalformedEvent)
	}

	// 強制完了シグナルは配信結果を持たない。通常イベントはresult_typeが必須。
	if !o.ForceMessageComplete {
		if o.Result == "" {
			return nil, fmt.Errorf("%w: result_typeが未指定です", ErrMalformedEvent)
		}
		if !o.Result.Valid() {
			return nil, fmt.Errorf("%w: 未知のresult_type: %s", ErrMalformedEvent, o.Result)
		}
	}

	return &o, nil
}

// EncodeOutcome はOutcomeイベントをJSONペイロードにシリアライズする。
func EncodeOutcome(o *Outcome) ([]byte, error) {
	payload, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("Outcomeイベントのシリアライズに失敗: %w", err)
	}
	return payload, nil
}

// EncodeDispatch は送信指示をJSONペイロードにシリアライズする。
func EncodeDispatch(d *Dispatch) ([]byte, error) {
	payload, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("送信指示のシリアライズに失敗: %w", err)
	}
	return payload, nil
}

// DecodeDispatch はJSONペイロードを送信指示にデコードする。
// 配信ワーカー側での利用を想定している。
func DecodeDispatch(payload []byte) (*Dispatch, error) {
	var d Dispatch
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, fmt.Errorf("%w: JSONのデコードに失敗: %v", ErrMalformedEvent, err)
	}
	if d.NotificationID == "" {
		return nil, fmt.Errorf("%w: notification_idが空です", ErrMalformedEvent)
	}
	return &d, nil
}
