// Package potable is a water-quality analysis toolkit: it loads the
// water-potability measurements dataset, performs descriptive statistics,
// median imputation and min-max normalization, and compares four classifier
// families (logistic regression, gradient-boosted trees, linear SVC, random
// forest) through grid search with k-fold cross-validation.
//
// The library packages follow a scikit-learn-like layout:
//
//   - dataset: CSV loading, the sample Table, descriptive statistics
//   - preprocessing: MedianImputer and MinMaxScaler
//   - modelselection: train/test split, k-fold splitters, GridSearchCV
//   - metrics: accuracy, confusion matrix, precision/recall/F1
//   - linearmodel, svm, tree, ensemble: the classifier families
//   - pipeline: the end-to-end comparison run and its report
//
// The potable command under cmd/ drives the whole pipeline from a YAML
// configuration file.
package potable
