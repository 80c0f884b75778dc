// Интерфейс Провайдера через который работает всё приложение.

package llm

import "context"

// Provider — контракт для любого чат-сервиса (ZhipuAI и OpenAI-совместимые API).
//
// Четыре операции: синхронный вызов, синхронный стриминг и их асинхронные
// варианты. Никакой иерархии наследования — только соответствие интерфейсу.
type Provider interface {
	// Call отправляет prompt и возвращает полный текст ответа.
	//
	// Если в конфигурации провайдера включён стриминг, реализация обязана
	// делегировать в потоковый путь и вернуть конкатенацию всех фрагментов
	// в порядке их прихода.
	Call(ctx context.Context, prompt string, opts ...CallOption) (string, error)

	// Stream выполняет запрос в потоковом режиме.
	//
	// onFragment вызывается для каждого непустого фрагмента после того, как
	// фрагмент добавлен в агрегат. Пустые фрагменты пропускаются молча.
	// Возвращает конкатенацию фрагментов; при ошибке посреди потока вместе
	// с ошибкой возвращается уже накопленная часть.
	Stream(ctx context.Context, prompt string, onFragment FragmentFunc, opts ...CallOption) (string, error)

	// CallAsync — неблокирующий вариант Call.
	//
	// Возвращает канал, в который будет доставлен ровно один Result,
	// после чего канал закрывается. Результат всегда строится из свежего
	// ответа API, а не из ранее сохранённого состояния.
	CallAsync(ctx context.Context, prompt string, opts ...CallOption) <-chan Result

	// StreamAsync — неблокирующий вариант Stream.
	//
	// Фрагменты доставляются в канал в порядке прихода от API.
	// Последний элемент несёт Done=true либо Err, после чего канал
	// закрывается. Последовательность не перезапускаема: один вызов — один поток.
	StreamAsync(ctx context.Context, prompt string, opts ...CallOption) <-chan Fragment
}
