// Package cli は自動プレイのコマンドラインインターフェースです。
//
// サブコマンド:
//
//	run    : アニメーションなしでゲームオーバー（または --steps）まで進め、結果を表示する
//	watch  : ターミナル上でシミュレーションを再生する
//	pieces : 全ピースを4つの回転すべてで表示する
//
// どのサブコマンドも --verbose (-v) でデバッグログ、--config でTOMLの設定ファイルを受け付けます。
// ロガーは context.Context 経由で渡されます。
package cli
