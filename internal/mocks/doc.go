// Package mocks provides shared mock implementations of service interfaces
// for handler and wiring tests.
//
// Two styles are available. Function-field mocks such as MockCardService
// return the result of an optional FooFn field, or DefaultError when it is
// unset. Testify mocks such as TestifyMockTopicService record calls and are
// configured with On/Return:
//
//	topics := &mocks.TestifyMockTopicService{}
//	topics.On("Get", mock.Anything, id).Return(nil, store.ErrTopicNotFound)
//	defer topics.AssertExpectations(t)
package mocks
