// Package testutil はテスト用の共通ヘルパーとモックを提供する
//
//   - helpers: ログを記録するロガー、待機時間を記録するSleeper
//   - mocks: testify/mockを使ったjira.Serviceのモック
package testutil
